// Package dialog implements the core data model for branching dialog
// graphs: scenes keyed by a unique identifier, each holding a question
// and an ordered list of answers that optionally point at the next
// scene.
//
// References between scenes are soft. An answer may name a scene that
// does not (yet) exist; nothing resolves the reference eagerly. Dangling
// references are surfaced by Validate, and during playback they behave
// as an implicit ending (see package playback).
//
// The package performs no I/O. Serialization goes through Document, a
// portable in-memory representation; reading and writing that document
// to durable storage belongs to the store adapters.
package dialog
