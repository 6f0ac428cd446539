package services

import "errors"

// Error taxonomy for the document lifecycle pipeline. Services wrap these
// sentinels with fmt.Errorf("%w: ...") so handlers can map them to status
// codes with errors.Is while keeping the diagnostic detail.
var (
	// ErrBlobWrite: writing an object to the tenant's uploads bucket failed.
	ErrBlobWrite = errors.New("blob write failed")
	// ErrBlobRemove: removing an object failed; a delete aborts here so no
	// record is left pointing at a blob that may still exist.
	ErrBlobRemove = errors.New("blob removal failed")
	// ErrRecordInsert: the provisional document row could not be inserted.
	// After a successful blob write this is an orphan-blob condition.
	ErrRecordInsert = errors.New("document record insert failed")
	// ErrRecordUpdate: a document row update failed.
	ErrRecordUpdate = errors.New("document record update failed")
	// ErrOrphanBlob: the blob was removed but the record could not be
	// deleted; reported distinctly so an operator can reconcile.
	ErrOrphanBlob = errors.New("file removed but metadata record still present")
	// ErrSignedURL: generating a time-limited retrieval link failed.
	ErrSignedURL = errors.New("signed URL generation failed")
	// ErrMetadataParse: the classifier response contained no usable JSON.
	ErrMetadataParse = errors.New("classifier response could not be parsed")
	// ErrMetadataPersist: validated metadata could not be written back; the
	// document stays unanalyzed and the attempt is safe to retry.
	ErrMetadataPersist = errors.New("metadata persist failed")
	// ErrUpstreamUnavailable: the classifier or storage endpoint did not
	// answer in time.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")
)
