package domain

import "errors"

var (
	ErrBillNotFound         = errors.New("bill document not found")
	ErrUnsupportedFileType  = errors.New("unsupported file type")
	ErrFileTooLarge         = errors.New("file exceeds maximum allowed size")
	ErrUploadFailed         = errors.New("file upload to storage failed")
	ErrBillNotRetryable     = errors.New("bill document is not in a retryable state")
	ErrBillNotProcessed     = errors.New("bill document has no extraction results yet")
	ErrParsingFailed        = errors.New("parsing failed")
	ErrValidationUnexecuted = errors.New("validation could not execute")
)
