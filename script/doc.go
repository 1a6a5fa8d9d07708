// Package script classifies bitcoin scripts by their structure.
//
// Classify recognises the standard output patterns, ParseSequence
// splits a run of operations into chained signable patterns, and
// BranchTree resolves which operations of a script with OP_IF or
// OP_NOTIF run for a given logical path.
package script
