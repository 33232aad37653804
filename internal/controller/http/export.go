package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/neo-threads/internal/domain/export/entity"
	thread "github.com/vadim/neo-threads/internal/domain/thread/entity"
	"github.com/vadim/neo-threads/internal/httpx/response"
)

// MaxExportBodySize bounds the posts submitted for export
const MaxExportBodySize = 16 << 20

// PostExporter stores posts in the workspace database
type PostExporter interface {
	Export(ctx context.Context, posts []thread.Post) (int, error)
}

// ExportHandler handles workspace export requests
type ExportHandler struct {
	exporter PostExporter
}

// NewExportHandler creates a new export handler
func NewExportHandler(exporter PostExporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// RegisterRoutes registers export routes
func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Post("/save-to-notion", h.Save())
}

// ExportRequest carries the posts to store
type ExportRequest struct {
	Threads []thread.Post `json:"threads"`
}

// ExportResponse reports how many posts were stored
type ExportResponse struct {
	Error   bool   `json:"error,omitempty"`
	Success bool   `json:"success"`
	Saved   int    `json:"saved"`
	Message string `json:"message,omitempty"`
}

// Save handles POST /save-to-notion
func (h *ExportHandler) Save() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ExportRequest
		if err := decodeJSON(w, r, &req, MaxExportBodySize); err != nil {
			response.BadRequest(w, err.Error())
			return
		}
		if len(req.Threads) == 0 {
			response.BadRequest(w, entity.ErrNoPosts.Error())
			return
		}

		saved, err := h.exporter.Export(r.Context(), req.Threads)
		if err != nil {
			handleExportError(w, saved, err)
			return
		}

		response.OK(w, ExportResponse{Success: true, Saved: saved})
	}
}

func handleExportError(w http.ResponseWriter, saved int, err error) {
	code := http.StatusBadGateway
	if errors.Is(err, entity.ErrSinkUnavailable) {
		code = http.StatusServiceUnavailable
	}
	response.JSON(w, code, ExportResponse{
		Error:   true,
		Saved:   saved,
		Message: err.Error(),
	})
}
