package media

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"truthguard-backend/internal/shared/storage/object/local"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	return &Service{Store: local.New(dir), Repo: NewMemoryRepo()}, dir
}

func storedFiles(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk store dir: %v", err)
	}
	return files
}

func TestIngestVideo(t *testing.T) {
	svc, dir := newTestService(t)

	m, err := svc.Ingest(context.Background(), "session-1", "clip.mp4", strings.NewReader("fake bytes"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if m.ID == "" || m.Kind != KindVideo || m.FileName != "clip.mp4" {
		t.Fatalf("unexpected media: %+v", m)
	}
	if m.SizeBytes != int64(len("fake bytes")) {
		t.Fatalf("unexpected size: %d", m.SizeBytes)
	}
	if m.LiftedText != "" {
		t.Fatalf("video must not carry lifted text")
	}
	if len(storedFiles(t, dir)) != 1 {
		t.Fatalf("expected one stored object")
	}

	got, err := svc.Get(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StorageKey != m.StorageKey {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestIngestUnsupportedTypeRemovesObject(t *testing.T) {
	svc, dir := newTestService(t)

	_, err := svc.Ingest(context.Background(), "session-1", "notes.txt", strings.NewReader("plain text"))
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if files := storedFiles(t, dir); len(files) != 0 {
		t.Fatalf("rejected upload left objects behind: %v", files)
	}
}

func TestIngestRequiresFileName(t *testing.T) {
	svc, _ := newTestService(t)

	if _, err := svc.Ingest(context.Background(), "session-1", "", strings.NewReader("x")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPurgeRemovesObjectAndRecord(t *testing.T) {
	svc, dir := newTestService(t)

	m, err := svc.Ingest(context.Background(), "session-1", "voice.mp3", strings.NewReader("audio bytes"))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if err := svc.Purge(context.Background(), m.ID); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if _, err := svc.Get(context.Background(), m.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after purge, got %v", err)
	}
	if files := storedFiles(t, dir); len(files) != 0 {
		t.Fatalf("purge left objects behind: %v", files)
	}

	// Purging twice is fine.
	if err := svc.Purge(context.Background(), m.ID); err != nil {
		t.Fatalf("second purge: %v", err)
	}
}

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		fileName string
		want     string
	}{
		{name: "video mime", mimeType: "video/mp4", fileName: "clip.bin", want: KindVideo},
		{name: "audio mime", mimeType: "audio/mpeg", fileName: "voice.bin", want: KindAudio},
		{name: "pdf mime", mimeType: "application/pdf", fileName: "report.bin", want: KindDocument},
		{name: "mime with params", mimeType: "video/webm; codecs=vp9", fileName: "clip.bin", want: KindVideo},
		{name: "octet stream mp4", mimeType: "application/octet-stream", fileName: "clip.MP4", want: KindVideo},
		{name: "octet stream flac", mimeType: "application/octet-stream", fileName: "song.flac", want: KindAudio},
		{name: "octet stream pdf", mimeType: "application/octet-stream", fileName: "scan.pdf", want: KindDocument},
		{name: "plain text", mimeType: "text/plain; charset=utf-8", fileName: "notes.txt", want: ""},
		{name: "image", mimeType: "image/png", fileName: "photo.png", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyKind(tt.mimeType, tt.fileName); got != tt.want {
				t.Fatalf("classifyKind(%q, %q) = %q, want %q", tt.mimeType, tt.fileName, got, tt.want)
			}
		})
	}
}

func TestMemoryRepo(t *testing.T) {
	repo := NewMemoryRepo()
	m := Media{ID: "media-1", SessionID: "session-1", FileName: "clip.mp4", Kind: KindVideo}

	if err := repo.Create(context.Background(), m); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.GetByID(context.Background(), "media-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FileName != "clip.mp4" {
		t.Fatalf("unexpected record: %+v", got)
	}

	if err := repo.Delete(context.Background(), "media-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "media-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(context.Background(), "media-1"); err != nil {
		t.Fatalf("deleting a missing record should be a no-op, got %v", err)
	}
}
