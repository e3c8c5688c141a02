package scans

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"truthguard-backend/internal/shared/server/middleware"
	"truthguard-backend/internal/shared/server/respond"
)

// MediaResolver looks up an ingested media object for file submissions.
type MediaResolver interface {
	Resolve(ctx context.Context, mediaID string) (*MediaRef, error)
}

// Handler wires HTTP handlers to the scans service.
type Handler struct {
	Svc   *Service
	Media MediaResolver
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, media MediaResolver) *Handler {
	return &Handler{Svc: svc, Media: media}
}

// RegisterRoutes attaches scan routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/scans", h.submit)
	rg.GET("/scans/current", h.current)
	rg.GET("/scans/current/events", h.events)
	rg.DELETE("/scans/current", h.reset)
	rg.GET("/scans/:id", h.getRecord)
}

type submitRequest struct {
	Kind    string `json:"kind"`
	Text    string `json:"text"`
	MediaID string `json:"mediaId"`
}

func (h *Handler) submit(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	sub := Submission{Kind: Kind(strings.ToLower(strings.TrimSpace(req.Kind)))}
	switch sub.Kind {
	case KindText:
		sub.Text = req.Text
	case KindVideo, KindAudio, KindDocument:
		if strings.TrimSpace(req.MediaID) != "" {
			ref, err := h.Media.Resolve(c.Request.Context(), req.MediaID)
			if err != nil {
				respond.Error(c, http.StatusBadRequest, ErrorCodeMissingFile,
					"The uploaded file could not be found. Please upload it again.", nil)
				return
			}
			sub.Media = ref
		}
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	view, err := h.Svc.Submit(ctx, sessionID, sub)
	if err != nil {
		if verr, ok := AsValidation(err); ok {
			respond.Error(c, http.StatusBadRequest, verr.Code, verr.Warning, nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"scanId":     view.ScanID,
		"status":     view.Status,
		"stage":      view.StageName,
		"stageIndex": view.StageIndex,
	})
}

func (h *Handler) current(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	respond.OK(c, h.Svc.Status(sessionID))
}

func (h *Handler) events(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	since := int64(0)
	if raw := c.Query("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "since must be a non-negative integer", nil)
			return
		}
		since = parsed
	}

	events := h.Svc.Events(sessionID, since)
	lastSeq := since
	if len(events) > 0 {
		lastSeq = events[len(events)-1].Seq
	}
	respond.OK(c, gin.H{"events": events, "lastSeq": lastSeq})
}

func (h *Handler) reset(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	h.Svc.Reset(ctx, sessionID)
	c.Status(http.StatusNoContent)
}

func (h *Handler) getRecord(c *gin.Context) {
	scanID := c.Param("id")
	if scanID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "scan id is required", nil)
		return
	}

	scan, err := h.Svc.GetRecord(c.Request.Context(), scanID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "scan not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch scan", nil)
		}
		return
	}
	respond.OK(c, scan)
}
