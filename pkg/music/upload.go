package music

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
)

// The platform integration for real media uploads is out of scope;
// uploads are simulated with an artificial progress timer that ends in
// a generated music id.

const (
	maxUploadSize   = 10 * 1024 * 1024
	progressStep    = 10
	defaultTickTime = 200 * time.Millisecond
)

var allowedContentTypes = map[string]bool{
	"audio/mpeg": true,
	"audio/mp3":  true,
	"audio/wav":  true,
	"audio/m4a":  true,
}

var (
	ErrInvalidFileType = errors.New("invalid file type, please upload an MP3, WAV, or M4A file")
	ErrFileTooLarge    = errors.New("file size too large, please upload a file smaller than 10MB")
)

type UploadRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Event is one progress tick. The final event carries Done plus the
// generated music id.
type Event struct {
	Progress int    `json:"progress"`
	Done     bool   `json:"done"`
	MusicID  string `json:"music_id,omitempty"`
}

type Upload struct {
	ID     string
	Events <-chan Event
}

type uploadRegistry struct {
	mux     *sync.Mutex
	uploads map[string]*Upload
}

func newUploadRegistry() *uploadRegistry {
	return &uploadRegistry{
		mux:     &sync.Mutex{},
		uploads: make(map[string]*Upload),
	}
}

func (r *uploadRegistry) put(u *Upload) {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.uploads[u.ID] = u
}

func (r *uploadRegistry) take(id string) (*Upload, bool) {
	r.mux.Lock()
	defer r.mux.Unlock()
	u, ok := r.uploads[id]
	if ok {
		delete(r.uploads, id)
	}
	return u, ok
}

// StartUpload validates the file metadata and kicks off the simulated
// upload. The caller streams the returned events to the UI.
func (s *Service) StartUpload(req UploadRequest) (*Upload, error) {
	if !allowedContentTypes[req.ContentType] {
		return nil, ErrInvalidFileType
	}
	if req.Size > maxUploadSize {
		return nil, ErrFileTooLarge
	}

	events := make(chan Event, 100/progressStep+1)
	upload := &Upload{
		ID:     ksuid.New().String(),
		Events: events,
	}
	s.uploads.put(upload)

	go func() {
		defer close(events)
		for progress := progressStep; progress < 100; progress += progressStep {
			time.Sleep(s.tick)
			events <- Event{Progress: progress}
		}
		time.Sleep(s.tick)
		events <- Event{Progress: 100, Done: true, MusicID: MockMusicID()}
		slog.Info("upload complete", "upload_id", upload.ID, "filename", req.Filename)
	}()

	slog.Info("upload started", "upload_id", upload.ID, "filename", req.Filename)
	return upload, nil
}

// TakeUpload hands the upload to its single consumer; a second take of
// the same id fails.
func (s *Service) TakeUpload(id string) (*Upload, bool) {
	return s.uploads.take(id)
}
