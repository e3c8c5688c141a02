package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"truthguard-backend/internal/shared/storage/object"
	"truthguard-backend/internal/shared/telemetry"
)

// Service contains business logic for media uploads.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
}

// Ingest saves the file to object storage, classifies it, and records the
// media. PDF uploads get their text lifted immediately so the stored object
// is never needed again for scoring.
func (s *Service) Ingest(ctx context.Context, sessionID, fileName string, r io.Reader) (Media, error) {
	if fileName == "" {
		return Media{}, ErrInvalidInput
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, sessionID, fileName, r)
	if err != nil {
		return Media{}, err
	}

	kind := classifyKind(mimeType, fileName)
	if kind == "" {
		s.deleteObject(ctx, storageKey)
		return Media{}, ErrUnsupportedType
	}

	m := Media{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		FileName:   fileName,
		MimeType:   mimeType,
		SizeBytes:  size,
		StorageKey: storageKey,
		Kind:       kind,
		CreatedAt:  time.Now().UTC(),
	}

	if kind == KindDocument {
		text, err := s.liftText(ctx, storageKey)
		if err != nil {
			s.deleteObject(ctx, storageKey)
			return Media{}, fmt.Errorf("lift document text: %w", err)
		}
		m.LiftedText = text
	}

	if err := s.Repo.Create(ctx, m); err != nil {
		s.deleteObject(ctx, storageKey)
		return Media{}, err
	}

	return m, nil
}

// Get returns a media record by ID.
func (s *Service) Get(ctx context.Context, mediaID string) (Media, error) {
	if mediaID == "" {
		return Media{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, mediaID)
}

// Purge removes both the stored object and the record. Purging media that
// was already removed is not an error.
func (s *Service) Purge(ctx context.Context, mediaID string) error {
	m, err := s.Repo.GetByID(ctx, mediaID)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}

	if err := s.Store.Delete(ctx, m.StorageKey); err != nil {
		return fmt.Errorf("purge media %s: %w", mediaID, err)
	}
	return s.Repo.Delete(ctx, mediaID)
}

func (s *Service) liftText(ctx context.Context, storageKey string) (string, error) {
	body, err := s.Store.Open(ctx, storageKey)
	if err != nil {
		return "", err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	return liftPDFText(raw)
}

func (s *Service) deleteObject(ctx context.Context, storageKey string) {
	if err := s.Store.Delete(ctx, storageKey); err != nil {
		telemetry.Error("media.delete_object", map[string]any{
			"storage_key": storageKey,
			"error":       err.Error(),
		})
	}
}

func classifyKind(mimeType, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch {
	case strings.HasPrefix(clean, "video/"):
		return KindVideo
	case strings.HasPrefix(clean, "audio/"):
		return KindAudio
	case clean == "application/pdf":
		return KindDocument
	}

	// Content sniffing reports application/octet-stream for several common
	// containers, so fall back to the file extension.
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".mp4", ".mov", ".webm", ".mkv", ".avi":
		return KindVideo
	case ".mp3", ".wav", ".m4a", ".ogg", ".flac", ".aac":
		return KindAudio
	case ".pdf":
		return KindDocument
	}
	return ""
}
