package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/music"
)

var upgrader = websocket.Upgrader{}

type uploadTicket struct {
	UploadID string `json:"upload_id"`
	Ticket   string `json:"ticket"`
}

// startUpload validates the file metadata and returns a single-use
// ticket for the progress stream.
func (s *Server) startUpload(c echo.Context) error {
	token, err := s.oauth.StoredToken(c.Request().Context())
	if err != nil || token == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "not connected")
	}

	var req music.UploadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	upload, err := s.music.StartUpload(req)
	if err != nil {
		if errors.Is(err, music.ErrInvalidFileType) || errors.Is(err, music.ErrFileTooLarge) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "upload failed")
	}

	ticket, err := s.tickets.Get()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "upload failed")
	}

	return c.JSON(http.StatusOK, uploadTicket{UploadID: upload.ID, Ticket: ticket})
}

// uploadProgress streams the simulated upload events over a
// websocket. The ticket is redeemed on connect, so each upload has
// exactly one consumer.
func (s *Server) uploadProgress(c echo.Context) error {
	if err := s.tickets.Redeem(c.QueryParam("ticket")); err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid upload ticket")
	}

	upload, ok := s.music.TakeUpload(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown upload")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	for event := range upload.Events {
		if err := ws.WriteJSON(event); err != nil {
			slog.Error("error writing upload event", "upload_id", upload.ID, "error", err)
			return nil
		}
	}

	return nil
}
