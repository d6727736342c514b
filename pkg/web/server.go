// Package web mounts the HTTP surface: OAuth login/callback/logout,
// session state, ad creation, music validation and the upload
// progress stream.
package web

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/adform"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/demo"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/music"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/nonce"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/session"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok/ads"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok/oauth"
)

type Config struct {
	// FrontendRedirectURI is where the callback sends the browser
	// after the code exchange, successful or not.
	FrontendRedirectURI string
}

type Server struct {
	cfg      Config
	oauth    *oauth.Client
	ads      *ads.Client
	music    *music.Service
	sessions *session.Manager
	forms    *adform.Validator
	demo     *demo.Service
	tickets  nonce.Service
}

func NewServer(cfg Config, oauthClient *oauth.Client, adsClient *ads.Client, musicService *music.Service, sessions *session.Manager, forms *adform.Validator, demoService *demo.Service, tickets nonce.Service) *Server {
	if cfg.FrontendRedirectURI == "" {
		cfg.FrontendRedirectURI = "/"
	}
	return &Server{
		cfg:      cfg,
		oauth:    oauthClient,
		ads:      adsClient,
		music:    musicService,
		sessions: sessions,
		forms:    forms,
		demo:     demoService,
		tickets:  tickets,
	}
}

func (s *Server) Mount(e *echo.Echo) {
	e.GET("/auth/login", s.login)
	e.GET("/auth/callback", s.callback)
	e.GET("/auth/session", s.sessionState)
	e.POST("/auth/logout", s.logout)
	e.POST("/auth/refresh", s.refresh)
	e.POST("/auth/demo", s.demoLogin)

	e.GET("/api/form", s.formConfig)
	e.POST("/api/ads", s.createAd)
	e.POST("/api/music/validate", s.validateMusic)
	e.POST("/api/music/uploads", s.startUpload)
	e.GET("/ws/uploads/:id", s.uploadProgress)
}

// apiError is the wire form of a tiktok.Error.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func toAPIError(e *tiktok.Error) *apiError {
	if e == nil {
		return nil
	}
	return &apiError{Code: e.Code(), Message: e.Message, Details: e.Details}
}

func (s *Server) login(c echo.Context) error {
	authURL, err := s.oauth.InitiateLogin(c.Request().Context())
	if err != nil {
		slog.Error("login initiation failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "OAuth configuration is missing")
	}
	return c.Redirect(http.StatusFound, authURL)
}

// callbackErrorMessages translates authorization server error codes
// into something a user can act on.
var callbackErrorMessages = map[string]string{
	"access_denied":  "Access denied. Please grant the required permissions.",
	"invalid_client": "Invalid app configuration. Please contact support.",
	"invalid_scope":  "Missing required advertising permissions. Please grant all requested permissions.",
}

func (s *Server) callback(c echo.Context) error {
	if errorCode := c.QueryParam("error"); errorCode != "" {
		message, ok := callbackErrorMessages[errorCode]
		if !ok {
			message = c.QueryParam("error_description")
			if message == "" {
				message = "Authentication failed. Please try again."
			}
		}
		slog.Warn("authorization denied", "error", errorCode)
		return s.redirectToFrontend(c, errorCode, message)
	}

	code := c.QueryParam("code")
	if code == "" {
		return s.redirectToFrontend(c, "missing_code", "No authorization code received. Please try again.")
	}

	result := s.oauth.HandleCallback(c.Request().Context(), code, c.QueryParam("state"))
	if !result.Success {
		return s.redirectToFrontend(c, result.Err.Code(), result.Err.Message)
	}

	s.sessions.SetUser(result.User)
	return s.redirectToFrontend(c, "", "")
}

func (s *Server) redirectToFrontend(c echo.Context, errorCode, message string) error {
	redirectURI, err := url.Parse(s.cfg.FrontendRedirectURI)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "invalid frontend redirect URI")
	}

	if errorCode != "" {
		params := url.Values{}
		params.Set("error", errorCode)
		params.Set("error_description", message)
		redirectURI.RawQuery = params.Encode()
	}

	return c.Redirect(http.StatusFound, redirectURI.String())
}

func (s *Server) sessionState(c echo.Context) error {
	state, err := s.sessions.Current(c.Request().Context())
	if err != nil {
		slog.Error("session lookup failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "session lookup failed")
	}
	return c.JSON(http.StatusOK, state)
}

func (s *Server) logout(c echo.Context) error {
	s.sessions.Clear(c.Request().Context())
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) refresh(c echo.Context) error {
	token, err := s.oauth.RefreshToken(c.Request().Context())
	if err != nil {
		s.sessions.SetUser(nil)
		if apiErr, ok := err.(*tiktok.Error); ok && apiErr.Kind == tiktok.KindNoRefreshToken {
			return c.JSON(http.StatusBadRequest, toAPIError(apiErr))
		}
		return c.JSON(http.StatusUnauthorized, &apiError{
			Code:    string(tiktok.KindUnauthorized),
			Message: "Your session has expired. Please reconnect your TikTok account.",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (s *Server) demoLogin(c echo.Context) error {
	if s.demo == nil {
		return echo.NewHTTPError(http.StatusNotFound, "demo mode is disabled")
	}

	token, user, expiresIn, err := s.demo.Mint()
	if err != nil {
		slog.Error("demo login failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "demo login failed")
	}

	if err := s.oauth.SaveToken(c.Request().Context(), token, "", expiresIn); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "demo login failed")
	}

	s.sessions.SetUser(user)
	slog.Info("demo mode enabled", "user", user.ID)
	return c.JSON(http.StatusOK, session.State{Authenticated: true, User: user})
}

type fieldConfig struct {
	Label   string          `json:"label"`
	Options []adform.Option `json:"options,omitempty"`
}

func (s *Server) formConfig(c echo.Context) error {
	fields := map[string]fieldConfig{}
	for _, field := range []string{"campaignName", "objective", "adText", "cta", "musicOption", "musicId"} {
		fields[field] = fieldConfig{
			Label:   adform.FieldLabel(field),
			Options: adform.FieldOptions(field),
		}
	}
	return c.JSON(http.StatusOK, map[string]any{"fields": fields})
}

type adCreationResponse struct {
	Success bool      `json:"success"`
	AdID    string    `json:"adId,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

func (s *Server) createAd(c echo.Context) error {
	var form adform.FormData
	if err := c.Bind(&form); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if errs := s.forms.ValidateForm(form); len(errs) > 0 {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"errors": errs})
	}

	musicID := form.MusicID
	if form.MusicOption == adform.MusicOptionNone {
		musicID = ""
	}

	result := s.ads.CreateAd(c.Request().Context(), ads.AdCreationData{
		CampaignName: form.CampaignName,
		Objective:    form.Objective,
		AdText:       form.AdText,
		CTA:          form.CTA,
		MusicID:      musicID,
	})

	return c.JSON(http.StatusOK, adCreationResponse{
		Success: result.Success,
		AdID:    result.AdID,
		Error:   toAPIError(result.Err),
	})
}

type musicValidationRequest struct {
	MusicID string `json:"music_id"`
}

func (s *Server) validateMusic(c echo.Context) error {
	var req musicValidationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.JSON(http.StatusOK, s.music.ValidateMusicID(c.Request().Context(), req.MusicID))
}
