// Package document holds the text snapshot that a patch run threads from rule
// to rule, and the store that loads it before a run and persists it after.
//
// A Document is a value: applying edits returns a new Document whose revision
// is one higher, and the receiver is never modified. The Store writes through
// a temporary file and a rename so a reader never observes a half-written
// target.
package document
