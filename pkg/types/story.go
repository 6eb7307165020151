package types

// EntryDialogID is the canonical story entry point. The dialog id space is
// author-assigned and starts at 1; new users begin at this node.
const EntryDialogID int64 = 1

// DialogNode is a single narrative unit of text shown to the player.
type DialogNode struct {
	ID   int64  // Author-assigned, positive, primary key.
	Text string // Narrative content, non-empty.
}

// Choice is a labeled transition from one dialog node to another, shown as a
// selectable option. NextDialogID is a plain identifier rather than an
// enforced reference: the store accepts choices pointing at dialogs that do
// not exist, and the dangling-reference scan is the sole integrity guarantee
// for that relationship.
type Choice struct {
	ID           int64  // Assigned by the store on insert.
	DialogID     int64  // Source dialog; must exist at write time.
	Text         string // Label shown to the player, non-empty.
	NextDialogID int64  // Intended target dialog; checked only by validation.
}

// ProgressRecord is the per-user pointer to the dialog node currently being
// viewed. Each user has at most one.
type ProgressRecord struct {
	UserID          int64
	CurrentDialogID int64
}
