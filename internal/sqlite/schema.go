package sqlite

// currentSchemaVersion is stored in PRAGMA user_version. Version 1 shipped
// without the choice-lookup index; upgradeSchema migrates stepwise from any
// supported older version.
const currentSchemaVersion = 2

// Schema DDL. Two columns deliberately carry no REFERENCES clause:
// next_dialog_id, because authored content may point choices at dialogs that
// do not exist and the dangling-reference scan is the integrity guarantee for
// that column; and progress.user_id, because progress records are lazily
// created on lookup for ids with no user row, and the user/progress cascade
// is applied explicitly inside the deletion transaction instead.
const (
	createUsers = `CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE
);`

	createProgress = `CREATE TABLE progress (
    user_id INTEGER PRIMARY KEY,
    current_dialog_id INTEGER NOT NULL
);`

	createDialogs = `CREATE TABLE dialogs (
    id INTEGER PRIMARY KEY,
    text TEXT NOT NULL
);`

	createChoices = `CREATE TABLE choices (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    dialog_id INTEGER NOT NULL REFERENCES dialogs(id) ON DELETE CASCADE,
    choice_text TEXT NOT NULL,
    next_dialog_id INTEGER NOT NULL
);`
)

// Index DDL, added in schema version 2.
const (
	idxChoicesDialog = `CREATE INDEX idx_choices_dialog ON choices(dialog_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createUsers,
	createProgress,
	createDialogs,
	createChoices,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxChoicesDialog,
}
