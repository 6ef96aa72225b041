// Package node turns a single node's configuration into the command-line
// tokens it contributes to a HayStack invocation.
//
// # Fragments
//
// [Fragment] is a pure function of the node's configuration and an [Env]:
// the same inputs always produce the same tokens. Dispatch goes through a
// table keyed by [graph.Kind]; kinds without an entry (unknown kinds) produce
// no tokens and no error.
//
// Loader tokens follow the grammar
//
//	scheme "://" [count "@"] path (":" key "=" value)*
//
// and flag-style fragments are "-flag value...".
//
// # Enable Flags
//
// Fields paired with an enable flag (spacingEnable, extractEnable,
// isoValueEnable) contribute tokens only when the flag is true. Disabled
// fields leave no trace in the output.
//
// # Number Formatting
//
// HayStack parses the tokens verbatim, so numbers are printed in one fixed
// textual form (see [FormatFloat]). The camera's field of view is rounded to
// 3 decimal digits and the default radius to 7 before printing; both
// precisions are part of the output contract.
package node
