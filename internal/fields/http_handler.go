package fields

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/wenwex7981/dynfields/internal/domain"
	"github.com/wenwex7981/dynfields/internal/repository"
	"github.com/wenwex7981/dynfields/pkg/validator"
)

// Handler exposes the consumer contract as JSON endpoints.
type Handler struct {
	service *Service
}

// NewHTTPHandler wraps the service with its route set.
func NewHTTPHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the handler endpoints on a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/{entityType}", func(r chi.Router) {
		r.Get("/", h.listDefinitions)
		r.Post("/", h.createDefinition)
		r.Post("/form", h.resolveForm)
		r.Post("/display", h.resolveDisplay)
		r.Post("/encode", h.encode)
		r.Post("/values/{entityID}", h.saveValues)
	})
	r.Route("/definitions/{id}", func(r chi.Router) {
		r.Patch("/", h.updateDefinition)
		r.Delete("/", h.deleteDefinition)
		r.Post("/reorder", h.reorderDefinition)
	})
	return r
}

func (h *Handler) listDefinitions(w http.ResponseWriter, r *http.Request) {
	entityType := domain.EntityType(chi.URLParam(r, "entityType"))

	defs, err := h.service.ListDefinitions(r.Context(), entityType)
	if err != nil {
		writeError(w, err)
		return
	}
	if defs == nil {
		defs = []domain.FieldDefinition{}
	}
	writeJSON(w, http.StatusOK, defs)
}

func (h *Handler) createDefinition(w http.ResponseWriter, r *http.Request) {
	entityType := domain.EntityType(chi.URLParam(r, "entityType"))

	var spec domain.FieldDefinitionSpec
	if !decodeBody(w, r, &spec) {
		return
	}

	created, err := h.service.CreateDefinition(r.Context(), entityType, spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) updateDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var patch domain.FieldDefinitionPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	updated, err := h.service.UpdateDefinition(r.Context(), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteDefinition(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reorderRequest struct {
	Direction string `json:"direction"`
}

func (h *Handler) reorderDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req reorderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	outcome, err := h.service.ReorderDefinition(r.Context(), id, repository.ReorderDirection(req.Direction))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}

type bagRequest struct {
	Values domain.RawBag `json:"values"`
}

func (h *Handler) resolveForm(w http.ResponseWriter, r *http.Request) {
	entityType := domain.EntityType(chi.URLParam(r, "entityType"))

	var req bagRequest
	if !decodeBody(w, r, &req) {
		return
	}

	model, err := h.service.ResolveForm(r.Context(), entityType, req.Values)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (h *Handler) resolveDisplay(w http.ResponseWriter, r *http.Request) {
	entityType := domain.EntityType(chi.URLParam(r, "entityType"))

	var req bagRequest
	if !decodeBody(w, r, &req) {
		return
	}

	model, err := h.service.ResolveDisplay(r.Context(), entityType, req.Values)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

type encodeRequest struct {
	Values map[string]any `json:"values"`
	Prior  domain.RawBag  `json:"prior"`
}

type encodeResponse struct {
	Bag    domain.RawBag          `json:"bag,omitempty"`
	Errors []validator.FieldError `json:"errors,omitempty"`
}

func (h *Handler) encode(w http.ResponseWriter, r *http.Request) {
	entityType := domain.EntityType(chi.URLParam(r, "entityType"))

	var req encodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	bag, fieldErrs, err := h.service.Encode(r.Context(), entityType, req.Values, req.Prior)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, encodeResponse{Errors: fieldErrs})
		return
	}
	writeJSON(w, http.StatusOK, encodeResponse{Bag: bag})
}

type saveValuesRequest struct {
	Values map[string]any `json:"values"`
}

func (h *Handler) saveValues(w http.ResponseWriter, r *http.Request) {
	entityType := domain.EntityType(chi.URLParam(r, "entityType"))

	entityID, err := uuid.Parse(chi.URLParam(r, "entityID"))
	if err != nil {
		http.Error(w, "invalid entity id", http.StatusBadRequest)
		return
	}

	var req saveValuesRequest
	if !decodeBody(w, r, &req) {
		return
	}

	bag, fieldErrs, err := h.service.SaveValues(r.Context(), entityType, entityID, req.Values)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(fieldErrs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, encodeResponse{Errors: fieldErrs})
		return
	}
	writeJSON(w, http.StatusOK, encodeResponse{Bag: bag})
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid definition id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer func() { _ = r.Body.Close() }()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDuplicateName):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrDefinitionNotFound), errors.Is(err, domain.ErrEntityNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownEntityType),
		errors.Is(err, domain.ErrUnknownFieldType),
		errors.Is(err, domain.ErrInvalidDefinition):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
