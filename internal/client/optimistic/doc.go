// Package optimistic holds posts that were submitted locally but are not
// yet confirmed by the backend.
//
// The Store keeps an ordered list of pending posts, newest first. Every
// mutation builds a new list and publishes it through an atomic pointer,
// so readers calling Snapshot or Get never observe a half-applied change
// and never block on writers. Writers are serialized by a mutex.
//
// Mutations addressed to a temp id or media index that no longer exists
// are ignored. Upload callbacks routinely arrive after a post was
// dismissed, and they must not resurrect it.
//
// A post that reaches the completed state is purged automatically after
// the purge delay (two seconds by default), giving the UI time to replace
// it with the confirmed post. The purge is a cancellable timer handle kept
// next to the post; removing the post earlier stops it.
//
// When a Persister is configured the storage-safe projection of the whole
// list (see models.Project) is written after every status change. Progress
// ticks are kept in memory only.
package optimistic
