// Package bubblekit is the server-side streaming runtime of the Bubblekit
// chat-bubble toolkit.
//
// User-supplied handlers incrementally build and mutate "bubbles"
// (structured message fragments) through a per-request *Context, while the
// runtime streams every mutation to the connected client as
// newline-delimited JSON. The runtime guarantees at most one open stream
// per conversation, gap-free per-stream sequence numbers, at most one
// terminal frame per stream, and auto-finalization of bubbles the handler
// left open.
//
// The HTTP surface lives in the server package; this package has no
// dependency on any HTTP framework and writes frames into a plain
// io.Writer.
package bubblekit
