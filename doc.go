// Package arbor is an authoring and playback engine for branching dialog
// trees: named scenes, each presenting a question and a list of answers
// that optionally lead to another scene.
//
// The core model lives in pkg/dialog (graph, validation, document
// serialization) and pkg/playback (the traversal state machine). This
// package provides Service, a high-level facade that wires a graph store
// and a session store together for the HTTP, MCP and CLI front ends.
package arbor
