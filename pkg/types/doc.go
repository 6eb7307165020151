// Package types defines the entity types, configuration, Repository
// interface, and standard errors for the Fable story engine.
package types
