// Package upload implements the concurrent media upload engine.
//
// A batch is processed in three network phases:
//
//  1. One negotiation call obtains an upload target and a pre-assigned
//     media id for every file.
//  2. Files are transferred to their targets in parallel, bounded by a
//     weighted semaphore. Each transfer is isolated: a failure marks only
//     that file as failed and never cancels its siblings.
//  3. One confirmation call finalizes every file whose transfer succeeded.
//     If it fails, those files are downgraded to failed.
//
// UploadMultipleFiles never returns an error. Failures are reported through
// the per-file results, the OnError callback and the wrapped sentinel
// errors ErrNegotiation, ErrTransfer and ErrConfirmation.
//
// All callbacks of one batch are invoked under the batch mutex, so they
// never run concurrently with each other and consumers need no locking of
// their own. Callbacks must not call back into the same batch.
package upload
