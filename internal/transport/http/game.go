package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iamasit07/4-in-a-row/client/internal/domain"
)

// SessionController is the slice of game.Session the handlers drive.
type SessionController interface {
	Join(ctx context.Context, username string) error
	Move(ctx context.Context, column int) error
	NewGame(ctx context.Context) error
	Snapshot() domain.Snapshot
}

type GameHandler struct {
	Session SessionController
}

func NewGameHandler(s SessionController) *GameHandler {
	return &GameHandler{Session: s}
}

type joinRequest struct {
	Username string `json:"username"`
}

type moveRequest struct {
	Column *int `json:"column" binding:"required"`
}

// GetState returns the full snapshot the terminal renders.
func (h *GameHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.Session.Snapshot())
}

func (h *GameHandler) Join(c *gin.Context) {
	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := h.Session.Join(c.Request.Context(), req.Username); err != nil {
		writeIntentError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.Session.Snapshot())
}

// Move takes a 0-based column.
func (h *GameHandler) Move(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "column is required"})
		return
	}

	if err := h.Session.Move(c.Request.Context(), *req.Column); err != nil {
		writeIntentError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, h.Session.Snapshot())
}

func (h *GameHandler) NewGame(c *gin.Context) {
	if err := h.Session.NewGame(c.Request.Context()); err != nil {
		writeIntentError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Session.Snapshot())
}

func (h *GameHandler) Leaderboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.Session.Snapshot().Leaderboard)
}

// Health reports the connection status. It answers 200 even while
// disconnected: the process itself is healthy and reconnecting.
func (h *GameHandler) Health(c *gin.Context) {
	snap := h.Session.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"connection": snap.Connection,
		"status":     snap.Game.Status,
	})
}

func writeIntentError(c *gin.Context, err error) {
	var domainErr domain.Error
	if errors.As(err, &domainErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": domainErr.Error()})
		return
	}
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
}
