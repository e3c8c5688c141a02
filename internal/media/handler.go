package media

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"truthguard-backend/internal/shared/server/middleware"
	"truthguard-backend/internal/shared/server/respond"
)

const maxUploadSize = 50 << 20 // 50MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches media routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/media", h.upload)
	rg.GET("/media/:id", h.get)
}

func (h *Handler) upload(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	m, err := h.Svc.Ingest(c.Request.Context(), sessionID, fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrUnsupportedType):
			respond.Error(c, http.StatusBadRequest, "unsupported_type",
				"Only video, audio, and PDF files are supported.", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to ingest media", nil)
		}
		return
	}

	c.Set("mediaId", m.ID)
	respond.JSON(c, http.StatusCreated, toResponse(m))
}

func (h *Handler) get(c *gin.Context) {
	m, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "media not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch media", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, toResponse(m))
}

func toResponse(m Media) gin.H {
	return gin.H{
		"mediaId":    m.ID,
		"fileName":   m.FileName,
		"mimeType":   m.MimeType,
		"sizeBytes":  m.SizeBytes,
		"kind":       m.Kind,
		"uploadedAt": m.CreatedAt,
	}
}
