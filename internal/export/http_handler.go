package export

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wenwex7981/dynfields/internal/domain"
)

// Handler exposes spreadsheet export as an HTTP download.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the export service.
func NewHTTPHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the export endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{entityType}.xlsx", h.download)
	return r
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	entityType := domain.EntityType(chi.URLParam(r, "entityType"))

	var buf bytes.Buffer
	if err := h.service.WriteWorkbook(r.Context(), entityType, &buf); err != nil {
		if errors.Is(err, domain.ErrUnknownEntityType) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(entityType)+"-fields.xlsx"))
	_, _ = w.Write(buf.Bytes())
}
