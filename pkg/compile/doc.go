// Package compile turns a HayStack node graph into the command line that
// launches the renderer.
//
// # Modes
//
// [Compiler.CompileTree] starts at the graph's render target and walks
// every upstream node in post-order, so each node's tokens follow the
// tokens of everything feeding it and the render target's own tokens come
// last. A node reachable along several paths is emitted once.
//
// [Compiler.CompileNode] emits a single node's own tokens. It is the
// preview used by the auto-generate loop.
//
// # Buffers
//
// The joined command is written to the compiler's [Sink] under
// "<graph>_command_tree.cmd" or "<graph>_command_node.cmd". The sink is
// touched only after every token has been produced, so a failing compile
// leaves the previous buffer content in place.
//
// # Errors
//
// Configuration errors carry an [errors.Code]: NO_ROOT when no render
// target can be chosen, NODE_FRAGMENT (with the node's ID and kind) when a
// node's configuration cannot be turned into tokens. Nodes of unknown kind
// are skipped silently.
package compile
