package ads_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok/ads"
)

type staticTokens struct {
	token string
}

func (s staticTokens) StoredToken(ctx context.Context) (string, error) {
	return s.token, nil
}

func newTestClient(baseURL, token string, delays *[]time.Duration) *ads.Client {
	return ads.NewClient(baseURL, staticTokens{token: token}, ads.WithSleepFunc(func(d time.Duration) {
		if delays != nil {
			*delays = append(*delays, d)
		}
	}))
}

func TestRetryServiceUnavailable(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	var delays []time.Duration
	client := newTestClient(ts.URL, "token", &delays)

	result := client.CreateAd(context.Background(), ads.AdCreationData{CampaignName: "My Campaign"})
	if result.Success {
		t.Fatal("expected failure")
	}
	if attempts != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", attempts)
	}
	if result.Err.Kind != tiktok.KindServiceUnavailable {
		t.Errorf("expected SERVICE_UNAVAILABLE, got %s", result.Err.Kind)
	}

	// linear backoff: 1s after attempt 1, 2s after attempt 2
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Errorf("unexpected delays: %v", delays)
	}
}

func TestNoRetryOnBadRequest(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"message": "objective missing"})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, "token", nil)

	result := client.CreateAd(context.Background(), ads.AdCreationData{})
	if result.Success {
		t.Fatal("expected failure")
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", attempts)
	}
	if result.Err.Kind != tiktok.KindBadRequest {
		t.Errorf("expected BAD_REQUEST, got %s", result.Err.Kind)
	}
	if result.Err.Message != "objective missing" {
		t.Errorf("expected platform message, got %q", result.Err.Message)
	}
}

func TestRetryNetworkError(t *testing.T) {
	var delays []time.Duration
	// closed port, every attempt fails at the transport
	client := newTestClient("http://127.0.0.1:1", "token", &delays)

	result := client.CreateAd(context.Background(), ads.AdCreationData{})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err.Kind != tiktok.KindNetworkError {
		t.Errorf("expected NETWORK_ERROR, got %s", result.Err.Kind)
	}
	if len(delays) != 2 {
		t.Errorf("expected 2 backoff delays, got %v", delays)
	}
}

func TestCreateAdSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token_1" {
			t.Errorf("missing bearer header")
		}
		if r.Header.Get("Access-Token") != "token_1" {
			t.Errorf("missing access-token header")
		}

		var body ads.AdCreationData
		json.NewDecoder(r.Body).Decode(&body)
		if body.CampaignName != "My Campaign" || body.CTA != "Shop Now" {
			t.Errorf("unexpected body: %+v", body)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"ad_id": "ad_999"},
		})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, "token_1", nil)

	result := client.CreateAd(context.Background(), ads.AdCreationData{
		CampaignName: "My Campaign",
		Objective:    "Traffic",
		AdText:       "Buy now",
		CTA:          "Shop Now",
		MusicID:      "music_123",
	})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result.Err)
	}
	if result.AdID != "ad_999" {
		t.Errorf("expected ad_999, got %s", result.AdID)
	}
}

func TestCreateAdFallbackID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": map[string]any{}})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, "token", nil)

	result := client.CreateAd(context.Background(), ads.AdCreationData{CampaignName: "My Campaign"})
	if !result.Success {
		t.Fatalf("expected success, got %+v", result.Err)
	}
	if !strings.HasPrefix(result.AdID, "ad_") {
		t.Errorf("expected generated ad id, got %q", result.AdID)
	}
}

func TestCreateAdPlatformError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 40101})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, "token", nil)

	result := client.CreateAd(context.Background(), ads.AdCreationData{CampaignName: "My Campaign"})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err.Code() != "API_ERROR_40101" {
		t.Errorf("expected API_ERROR_40101, got %s", result.Err.Code())
	}
	if result.Err.Message != "Campaign name is invalid or already exists." {
		t.Errorf("unexpected message: %q", result.Err.Message)
	}
}

func TestCreateAdUnknownPlatformError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"code": 60000, "message": "odd failure"})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, "token", nil)

	result := client.CreateAd(context.Background(), ads.AdCreationData{CampaignName: "My Campaign"})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err.Code() != "API_ERROR_60000" {
		t.Errorf("expected API_ERROR_60000, got %s", result.Err.Code())
	}
	if result.Err.Message != "odd failure" {
		t.Errorf("expected platform message passthrough, got %q", result.Err.Message)
	}
}

func TestCreateAdWithoutToken(t *testing.T) {
	client := newTestClient("https://unused.example.com", "", nil)

	result := client.CreateAd(context.Background(), ads.AdCreationData{CampaignName: "My Campaign"})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Err.Kind != tiktok.KindUnauthorized {
		t.Errorf("expected UNAUTHORIZED, got %s", result.Err.Kind)
	}
}

func TestValidateMusicIDMappings(t *testing.T) {
	cases := []struct {
		code    int
		message string
	}{
		{40001, "The selected music is not available. Please choose a different track."},
		{40002, "This music track has usage restrictions and cannot be used."},
		{40003, "This music track is no longer available."},
		{40004, "Invalid music ID format."},
		{40005, "You do not have permission to use this music track."},
		{49999, "The selected music is not available. Please choose a different track."},
	}

	for _, tc := range cases {
		code := tc.code
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"code": code})
		}))

		client := newTestClient(ts.URL, "token", nil)
		result := client.ValidateMusicID(context.Background(), "music_123")
		if result.Valid {
			t.Errorf("code %d: expected invalid result", tc.code)
		}
		if result.Error != tc.message {
			t.Errorf("code %d: expected %q, got %q", tc.code, tc.message, result.Error)
		}

		ts.Close()
	}
}

func TestValidateMusicIDSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["music_id"] != "music_123" {
			t.Errorf("unexpected body: %v", body)
		}
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "data": map[string]any{"is_valid": true}})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, "token", nil)
	result := client.ValidateMusicID(context.Background(), "music_123")
	if !result.Valid {
		t.Errorf("expected valid result, got %+v", result)
	}
}

func TestValidateMusicIDTransportFailure(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1", "token", nil)

	result := client.ValidateMusicID(context.Background(), "music_123")
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if result.Error == "" {
		t.Error("expected a displayable message")
	}
}

func TestGetUserProfile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"code": 0,
			"data": map[string]any{"user": map[string]any{"open_id": "u1"}},
		})
	}))
	defer ts.Close()

	client := newTestClient(ts.URL, "token", nil)
	data, err := client.GetUserProfile(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if !strings.Contains(string(data), "u1") {
		t.Errorf("unexpected profile payload: %s", data)
	}
}
