package media

import "time"

// Kind buckets an upload by how the pipeline treats it.
const (
	KindVideo    = "video"
	KindAudio    = "audio"
	KindDocument = "document"
)

// Media represents an uploaded file pending analysis. Records live only in
// memory and the stored object is purged once its run reaches a terminal
// state, so no upload outlives the session that produced it.
type Media struct {
	ID         string
	SessionID  string
	FileName   string
	MimeType   string
	SizeBytes  int64
	StorageKey string
	Kind       string
	LiftedText string
	CreatedAt  time.Time
}
