package handler

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/form"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/service"
)

// maxPatchBody bounds PATCH bodies; a park is a few hundred bytes.
const maxPatchBody = 64 << 10

// maxFormMemory bounds the multipart parts kept in memory for POST /api/add.
const maxFormMemory = 1 << 20

// APIHandler serves the JSON mirror of the park operations.
type APIHandler struct {
	parks  *service.ParkService
	logger *slog.Logger
}

func NewAPIHandler(parks *service.ParkService, logger *slog.Logger) *APIHandler {
	return &APIHandler{parks: parks, logger: logger}
}

type parksResponse struct {
	Parks []model.Park `json:"parks"`
}

// HandleAll serves GET /api/all.
func (h *APIHandler) HandleAll(w http.ResponseWriter, r *http.Request) {
	parks, err := h.parks.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if parks == nil {
		parks = []model.Park{}
	}
	writeJSON(w, http.StatusOK, parksResponse{Parks: parks})
}

// HandleAdd serves POST /api/add. The body is a form, urlencoded or
// multipart, and goes through the same validation as the add-park page.
func (h *APIHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if err := parseAnyForm(r); err != nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "request body must be form-encoded"))
		return
	}

	if _, err := h.parks.Create(r.Context(), form.DecodePark(r.PostForm)); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Successfully added the new park.")
}

// HandleUpdate serves PATCH /api/update/{id}. Only allow-listed fields
// are applied; see service.ParkService.Patch.
func (h *APIHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parkID(r)
	if !ok {
		writeError(w, h.logger, &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: "Sorry, a park with that id was not found in the database.",
		})
		return
	}

	var fields map[string]json.RawMessage
	// A literal null decodes without error into a nil map.
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPatchBody)).Decode(&fields); err != nil || fields == nil {
		writeError(w, h.logger, apperror.ValidationFailed("body", "request body must be a JSON object"))
		return
	}

	if _, err := h.parks.Patch(r.Context(), id, fields); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Successfully updated the park.")
}

// parseAnyForm fills r.PostForm from either form encoding. ParseForm alone
// leaves multipart bodies unread.
func parseAnyForm(r *http.Request) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err == nil && mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxFormMemory)
	}
	return r.ParseForm()
}
