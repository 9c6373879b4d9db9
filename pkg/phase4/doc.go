/*
Package phase4 implements the manual-review surface: the terminal stage a
human classifier works from when every automated tier has given up. It
consumes the Phase 3 failure stream and, on a reviewer's decision, writes
an Artifact in the same shape Phase 1-3 produce — there is no Phase 5
distinction between a machine- and human-resolved item.

This package holds no UI of its own; cmd/pipeline's `review` subcommand
drives it interactively. The package exposes the queue and the single
write path a terminal or any other front-end would call.
*/
package phase4
