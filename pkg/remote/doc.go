// Package remote browses and writes to cluster file systems over SSH.
//
// A [Runner] executes a shell command on a cluster preset and returns its
// standard output. [SSHRunner] is the real implementation; it keeps one
// connection per preset and reuses it across commands.
//
// [Lister] turns directory listings into [Entry] values the way the node
// editor shows them: ".." first, then directories (with a trailing "/"),
// then files. A failed listing is never an error, it just yields fewer
// entries. Listings are cached for a short time.
//
// [Browser] tracks the current remote directory as the user moves through
// it, and [Uploader] copies compiled command buffers to a cluster with scp.
package remote
