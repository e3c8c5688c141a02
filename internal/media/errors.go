package media

import "errors"

var (
	// ErrNotFound indicates the media object does not exist or was purged.
	ErrNotFound = errors.New("media not found")
	// ErrInvalidInput indicates a malformed upload request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnsupportedType indicates the upload is not a video, audio, or PDF file.
	ErrUnsupportedType = errors.New("unsupported file type")
)
