package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pacer-app/pacer/internal/domain"
	"github.com/pacer-app/pacer/internal/feature"
	"github.com/pacer-app/pacer/internal/schedule"
	"github.com/pacer-app/pacer/internal/transport/http/middleware"
	"github.com/pacer-app/pacer/internal/usecase"
)

type DocumentHandler struct {
	uc       *usecase.DocumentUsecase
	settings schedule.Settings
	resolver feature.Resolver
	logger   *slog.Logger
}

func NewDocumentHandler(uc *usecase.DocumentUsecase, settings schedule.Settings, resolver feature.Resolver, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		uc:       uc,
		settings: settings,
		resolver: resolver,
		logger:   logger.With("component", "document_handler"),
	}
}

type saveDocumentRequest struct {
	Name         string       `json:"name"          binding:"required,max=256"`
	Items        []domain.Row `json:"items"`
	ReminderCron *string      `json:"reminder_cron" binding:"omitempty,max=64"`
	ReminderTo   *string      `json:"reminder_to"   binding:"omitempty,email"`
}

type documentResponse struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Items        []domain.Row `json:"items"`
	ReminderCron *string      `json:"reminder_cron,omitempty"`
	ReminderTo   *string      `json:"reminder_to,omitempty"`
	NextRemindAt *time.Time   `json:"next_remind_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

func toDocumentResponse(doc *domain.ScheduleDocument) documentResponse {
	return documentResponse{
		ID:           doc.ID,
		Name:         doc.Name,
		Items:        doc.Items,
		ReminderCron: doc.ReminderCron,
		ReminderTo:   doc.ReminderTo,
		NextRemindAt: doc.NextRemindAt,
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}
}

func (h *DocumentHandler) Create(ctx *gin.Context) {
	var req saveDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.uc.CreateDocument(ctx.Request.Context(), usecase.SaveDocumentInput{
		OwnerID:      ctx.GetString(middleware.OwnerKey),
		Name:         req.Name,
		Items:        req.Items,
		ReminderCron: req.ReminderCron,
		ReminderTo:   req.ReminderTo,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidReminderCron):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidReminderCron})
		case errors.Is(err, domain.ErrDocumentNameConflict):
			ctx.JSON(http.StatusConflict, gin.H{"error": errDocumentConflict})
		default:
			h.logger.Error("create document", "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.JSON(http.StatusCreated, toDocumentResponse(doc))
}

func (h *DocumentHandler) List(ctx *gin.Context) {
	limit, _ := strconv.Atoi(ctx.Query("limit"))

	result, err := h.uc.ListDocuments(ctx.Request.Context(), usecase.ListDocumentsInput{
		OwnerID: ctx.GetString(middleware.OwnerKey),
		Cursor:  ctx.Query("cursor"),
		Limit:   limit,
	})
	if err != nil {
		h.logger.Error("list documents", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]documentResponse, len(result.Documents))
	for i, doc := range result.Documents {
		items[i] = toDocumentResponse(doc)
	}
	ctx.JSON(http.StatusOK, gin.H{
		"documents":   items,
		"next_cursor": result.NextCursor,
	})
}

func (h *DocumentHandler) GetByID(ctx *gin.Context) {
	id := ctx.Param("id")

	doc, err := h.uc.GetDocument(ctx.Request.Context(), id, ctx.GetString(middleware.OwnerKey))
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errDocumentNotFound})
			return
		}
		h.logger.Error("get document", "document_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, toDocumentResponse(doc))
}

func (h *DocumentHandler) Update(ctx *gin.Context) {
	id := ctx.Param("id")

	var req saveDocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.uc.UpdateDocument(ctx.Request.Context(), id, usecase.SaveDocumentInput{
		OwnerID:      ctx.GetString(middleware.OwnerKey),
		Name:         req.Name,
		Items:        req.Items,
		ReminderCron: req.ReminderCron,
		ReminderTo:   req.ReminderTo,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDocumentNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": errDocumentNotFound})
		case errors.Is(err, domain.ErrInvalidReminderCron):
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidReminderCron})
		case errors.Is(err, domain.ErrDocumentNameConflict):
			ctx.JSON(http.StatusConflict, gin.H{"error": errDocumentConflict})
		default:
			h.logger.Error("update document", "document_id", id, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	ctx.JSON(http.StatusOK, toDocumentResponse(doc))
}

func (h *DocumentHandler) Delete(ctx *gin.Context) {
	id := ctx.Param("id")

	err := h.uc.DeleteDocument(ctx.Request.Context(), id, ctx.GetString(middleware.OwnerKey))
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errDocumentNotFound})
			return
		}
		h.logger.Error("delete document", "document_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// Build is the dry-run endpoint: build the stored document and return the
// flattened intervals plus diagnostics without starting a session. The
// editor uses it to refresh its error banner.
func (h *DocumentHandler) Build(ctx *gin.Context) {
	id := ctx.Param("id")

	doc, err := h.uc.GetDocument(ctx.Request.Context(), id, ctx.GetString(middleware.OwnerKey))
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errDocumentNotFound})
			return
		}
		h.logger.Error("get document for build", "document_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	result, err := schedule.Build(doc, h.settings, h.resolver)
	if err != nil {
		h.logger.Error("build document", "document_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	intervals := make([]gin.H, len(result.Intervals))
	for i, iv := range result.Intervals {
		item := gin.H{
			"task":             iv.Task,
			"color":            iv.Color,
			"duration_seconds": iv.Duration.Seconds(),
			"intro_seconds":    iv.Intro.Seconds(),
		}
		if iv.Feature != nil {
			item["feature"] = iv.Feature
		}
		intervals[i] = item
	}

	ctx.JSON(http.StatusOK, gin.H{
		"intervals":              intervals,
		"diagnostics":            result.Diagnostics,
		"total_duration_seconds": result.TotalDuration().Seconds(),
		"empty":                  result.Empty(),
		"failed":                 result.Failed(),
	})
}
