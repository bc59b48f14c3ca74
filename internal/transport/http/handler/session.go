package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/session"
	"github.com/pacer-app/pacer/internal/transport/http/middleware"
	"github.com/pacer-app/pacer/internal/usecase"
)

type SessionHandler struct {
	manager *session.Manager
	docs    *usecase.DocumentUsecase
	logger  *slog.Logger
}

func NewSessionHandler(manager *session.Manager, docs *usecase.DocumentUsecase, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		docs:    docs,
		logger:  logger.With("component", "session_handler"),
	}
}

type createSessionRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
}

// Create builds the referenced document into a prepared, paused session.
// A build with zero intervals is rejected; the response body tells the
// client whether that was an empty document (neutral placeholder) or one
// where every row failed (error banner).
func (h *SessionHandler) Create(ctx *gin.Context) {
	var req createSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ownerID := ctx.GetString(middleware.OwnerKey)

	doc, err := h.docs.GetDocument(ctx.Request.Context(), req.DocumentID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errDocumentNotFound})
			return
		}
		h.logger.Error("get document for session", "document_id", req.DocumentID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	view, result, err := h.manager.Create(ownerID, doc)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrEmptySchedule):
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": errEmptySchedule,
				"empty": true,
			})
		case errors.Is(err, session.ErrBuildFailed):
			ctx.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":       errBuildFailed,
				"diagnostics": result.Diagnostics,
			})
		default:
			h.logger.Error("create session", "document_id", req.DocumentID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.JSON(http.StatusCreated, view)
}

func (h *SessionHandler) Get(ctx *gin.Context) {
	id := ctx.Param("id")

	view, err := h.manager.Snapshot(ctx.GetString(middleware.OwnerKey), id)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errSessionNotFound})
			return
		}
		h.logger.Error("get session", "session_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, view)
}

func (h *SessionHandler) Start(ctx *gin.Context) {
	h.control(ctx, h.manager.Start)
}

func (h *SessionHandler) Pause(ctx *gin.Context) {
	h.control(ctx, h.manager.Pause)
}

func (h *SessionHandler) Skip(ctx *gin.Context) {
	h.control(ctx, h.manager.Skip)
}

// control runs one play-state operation. The state machine treats
// out-of-state operations as no-ops, so anything but not-found is 204.
func (h *SessionHandler) control(ctx *gin.Context, op func(ownerID, id string) error) {
	id := ctx.Param("id")

	if err := op(ctx.GetString(middleware.OwnerKey), id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errSessionNotFound})
			return
		}
		h.logger.Error("session control", "session_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *SessionHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	if err := h.manager.Remove(ctx.GetString(middleware.OwnerKey), id); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errSessionNotFound})
			return
		}
		h.logger.Error("delete session", "session_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.Status(http.StatusNoContent)
}
