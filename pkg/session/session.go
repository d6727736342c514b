// Package session exposes the current token/user state to the web
// layer, backed by the OAuth client's storage.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok"
)

// Credentials is the slice of the OAuth client the session layer
// needs.
type Credentials interface {
	StoredToken(ctx context.Context) (string, error)
	FetchProfile(ctx context.Context, token string) (*tiktok.UserProfile, *tiktok.Error)
	Logout(ctx context.Context)
}

// DemoVerifier recognizes locally minted demo credentials, which must
// not be sent to the platform.
type DemoVerifier interface {
	Verify(raw string) (*tiktok.UserProfile, error)
}

type State struct {
	Authenticated bool                `json:"authenticated"`
	User          *tiktok.UserProfile `json:"user,omitempty"`
}

type Manager struct {
	mux         *sync.RWMutex
	credentials Credentials
	demo        DemoVerifier
	user        *tiktok.UserProfile
}

func NewManager(credentials Credentials, demo DemoVerifier) *Manager {
	return &Manager{
		mux:         &sync.RWMutex{},
		credentials: credentials,
		demo:        demo,
	}
}

// Current resolves the session from the stored token. The profile is
// cached in memory after the first lookup; after a restart it is
// refetched from the platform (or recovered from the demo token).
func (m *Manager) Current(ctx context.Context) (State, error) {
	token, err := m.credentials.StoredToken(ctx)
	if err != nil {
		return State{}, err
	}
	if token == "" {
		m.SetUser(nil)
		return State{}, nil
	}

	if user := m.cachedUser(); user != nil {
		return State{Authenticated: true, User: user}, nil
	}

	if m.demo != nil {
		if user, err := m.demo.Verify(token); err == nil {
			m.SetUser(user)
			return State{Authenticated: true, User: user}, nil
		}
	}

	user, apiErr := m.credentials.FetchProfile(ctx, token)
	if apiErr != nil {
		slog.Warn("profile refetch failed", "kind", apiErr.Kind)
		return State{Authenticated: true}, nil
	}

	m.SetUser(user)
	return State{Authenticated: true, User: user}, nil
}

func (m *Manager) cachedUser() *tiktok.UserProfile {
	m.mux.RLock()
	defer m.mux.RUnlock()
	return m.user
}

// SetUser records the profile after a successful login or demo login.
func (m *Manager) SetUser(user *tiktok.UserProfile) {
	m.mux.Lock()
	defer m.mux.Unlock()
	m.user = user
}

// Clear logs out: stored credentials and the cached profile both go.
func (m *Manager) Clear(ctx context.Context) {
	m.credentials.Logout(ctx)
	m.SetUser(nil)
}
