// Package cli provides the interactive postkeeper command-line client.
//
// It wires configuration, local storage of pending posts, the upload engine
// and the post service behind a small REPL. Typical flow: restore the
// pending list from disk, start a background connectivity watcher and
// execute user commands.
//
// Key features:
//   - Compose a post with attachments; it shows up immediately as pending
//   - List pending posts with per-file progress bars
//   - Retry only the failed files of a post, or dismiss it
//   - Watch running uploads until they settle
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
