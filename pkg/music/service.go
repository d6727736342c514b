// Package music handles the music selection side of the ad form:
// local format checks before the remote validation call, and a
// simulated upload that reports progress until a usable music id is
// produced.
package music

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok/ads"
)

// Validator is the remote side of music validation, satisfied by the
// ads client.
type Validator interface {
	ValidateMusicID(ctx context.Context, musicID string) ads.ValidationResult
}

type Service struct {
	remote  Validator
	uploads *uploadRegistry

	// tick is the simulated upload progress interval, shortened in
	// tests
	tick time.Duration
}

func NewService(remote Validator) *Service {
	return &Service{
		remote:  remote,
		uploads: newUploadRegistry(),
		tick:    defaultTickTime,
	}
}

// ValidateMusicID runs the cheap local checks first and only then
// calls the platform.
func (s *Service) ValidateMusicID(ctx context.Context, musicID string) ads.ValidationResult {
	if musicID == "" {
		return ads.ValidationResult{Valid: false, Error: "Music ID is required"}
	}
	if len(musicID) < 3 {
		return ads.ValidationResult{Valid: false, Error: "Music ID must be at least 3 characters long"}
	}
	if len(musicID) > 50 {
		return ads.ValidationResult{Valid: false, Error: "Music ID is too long"}
	}

	result := s.remote.ValidateMusicID(ctx, musicID)
	if !result.Valid && result.Error == "" {
		result.Error = "Unable to validate music ID. Please try again."
	}
	return result
}

// MockMusicID generates a stand-in id for simulated uploads.
func MockMusicID() string {
	return fmt.Sprintf("music_%s", ksuid.New().String())
}
