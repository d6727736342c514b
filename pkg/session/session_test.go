package session

import (
	"context"
	"errors"
	"testing"

	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok"
)

type fakeCredentials struct {
	token        string
	tokenErr     error
	profile      *tiktok.UserProfile
	profileErr   *tiktok.Error
	profileCalls int
	logouts      int
}

func (f *fakeCredentials) StoredToken(ctx context.Context) (string, error) {
	return f.token, f.tokenErr
}

func (f *fakeCredentials) FetchProfile(ctx context.Context, token string) (*tiktok.UserProfile, *tiktok.Error) {
	f.profileCalls++
	return f.profile, f.profileErr
}

func (f *fakeCredentials) Logout(ctx context.Context) {
	f.logouts++
}

type fakeVerifier struct {
	user *tiktok.UserProfile
	err  error
}

func (f *fakeVerifier) Verify(raw string) (*tiktok.UserProfile, error) {
	return f.user, f.err
}

func TestCurrentWithoutToken(t *testing.T) {
	manager := NewManager(&fakeCredentials{}, nil)
	manager.SetUser(&tiktok.UserProfile{ID: "stale"})

	state, err := manager.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if state.Authenticated || state.User != nil {
		t.Errorf("expected empty state, got %+v", state)
	}
	if manager.cachedUser() != nil {
		t.Error("stale cached user must be dropped when the token is gone")
	}
}

func TestCurrentStorageError(t *testing.T) {
	wantErr := errors.New("storage down")
	manager := NewManager(&fakeCredentials{tokenErr: wantErr}, nil)

	if _, err := manager.Current(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("expected storage error, got %v", err)
	}
}

func TestCurrentUsesCachedUser(t *testing.T) {
	credentials := &fakeCredentials{token: "tok"}
	manager := NewManager(credentials, nil)
	manager.SetUser(&tiktok.UserProfile{ID: "u1", Name: "User"})

	state, err := manager.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if !state.Authenticated || state.User == nil || state.User.ID != "u1" {
		t.Errorf("unexpected state: %+v", state)
	}
	if credentials.profileCalls != 0 {
		t.Error("cached profile must not trigger a platform call")
	}
}

func TestCurrentRefetchesProfile(t *testing.T) {
	credentials := &fakeCredentials{
		token:   "tok",
		profile: &tiktok.UserProfile{ID: "u2", Name: "Fetched"},
	}
	manager := NewManager(credentials, nil)

	state, err := manager.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if state.User == nil || state.User.ID != "u2" {
		t.Errorf("unexpected state: %+v", state)
	}
	if credentials.profileCalls != 1 {
		t.Errorf("expected one fetch, got %d", credentials.profileCalls)
	}

	// second call hits the cache
	if _, err := manager.Current(context.Background()); err != nil {
		t.Fatalf("Current: %v", err)
	}
	if credentials.profileCalls != 1 {
		t.Errorf("expected the cached profile, got %d fetches", credentials.profileCalls)
	}
}

func TestCurrentProfileErrorStaysAuthenticated(t *testing.T) {
	credentials := &fakeCredentials{
		token:      "tok",
		profileErr: &tiktok.Error{Kind: tiktok.KindNetworkError},
	}
	manager := NewManager(credentials, nil)

	state, err := manager.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if !state.Authenticated {
		t.Error("a failed refetch must not end the session")
	}
	if state.User != nil {
		t.Error("no profile is available after a failed refetch")
	}
}

func TestCurrentDemoToken(t *testing.T) {
	credentials := &fakeCredentials{token: "demo-jwt"}
	verifier := &fakeVerifier{user: &tiktok.UserProfile{ID: "demo_1", Name: "Demo"}}
	manager := NewManager(credentials, verifier)

	state, err := manager.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if state.User == nil || state.User.ID != "demo_1" {
		t.Errorf("unexpected state: %+v", state)
	}
	if credentials.profileCalls != 0 {
		t.Error("demo tokens must never reach the platform")
	}
}

func TestCurrentNonDemoTokenFallsThrough(t *testing.T) {
	credentials := &fakeCredentials{
		token:   "real-token",
		profile: &tiktok.UserProfile{ID: "u3"},
	}
	verifier := &fakeVerifier{err: errors.New("not a demo token")}
	manager := NewManager(credentials, verifier)

	state, err := manager.Current(context.Background())
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if state.User == nil || state.User.ID != "u3" {
		t.Errorf("unexpected state: %+v", state)
	}
}

func TestClear(t *testing.T) {
	credentials := &fakeCredentials{token: "tok"}
	manager := NewManager(credentials, nil)
	manager.SetUser(&tiktok.UserProfile{ID: "u1"})

	manager.Clear(context.Background())
	if credentials.logouts != 1 {
		t.Errorf("expected one logout, got %d", credentials.logouts)
	}
	if manager.cachedUser() != nil {
		t.Error("cached user must be cleared")
	}
}
