package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/parks/internal/apperror"
	"github.com/sakif/parks/internal/form"
	"github.com/sakif/parks/internal/model"
	"github.com/sakif/parks/internal/service"
	"github.com/sakif/parks/internal/session"
)

// Flash messages for the park pages.
const (
	msgParkNotFound     = "Park not found."
	msgParkAdded        = "Park added."
	msgParkUpdated      = "Park updated."
	msgSuggestionSent   = "Thanks! Your suggestion has been sent for review."
	msgNothingToSuggest = "No changes to suggest."
)

// ParkHandler serves the landing page, the park list and the add, edit and
// delete forms.
type ParkHandler struct {
	parks  *service.ParkService
	pages  *Renderer
	logger *slog.Logger
}

func NewParkHandler(parks *service.ParkService, pages *Renderer, logger *slog.Logger) *ParkHandler {
	return &ParkHandler{parks: parks, pages: pages, logger: logger}
}

// HandleIndex serves GET /.
func (h *ParkHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, pageIndex, pageData{Title: "Welcome"})
}

// HandleList serves GET /parks.
func (h *ParkHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	parks, err := h.parks.List(r.Context())
	if err != nil {
		h.notFoundOr500(w, r, err)
		return
	}
	h.pages.render(w, r, http.StatusOK, pageParks, pageData{Title: "Parks", Parks: parks})
}

// HandleAddForm serves GET /add_park.
func (h *ParkHandler) HandleAddForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, "Add a park", "/add_park", false, nil, nil)
}

// HandleAdd serves POST /add_park.
func (h *ParkHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	in := form.DecodePark(r.PostForm)

	if _, err := h.parks.Create(r.Context(), in); err != nil {
		h.formError(w, r, err, "Add a park", "/add_park", false, in)
		return
	}
	h.pages.flashRedirect(w, r, model.FlashSuccess, msgParkAdded, "/parks")
}

// HandleEditForm serves GET /edit_park/{id}. Anyone may open it; what
// happens on submit depends on whether they are logged in.
func (h *ParkHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := parkID(r)
	if !ok {
		h.pages.flashRedirect(w, r, model.FlashDanger, msgParkNotFound, "/parks")
		return
	}

	park, err := h.parks.Get(r.Context(), id)
	if err != nil {
		h.notFoundOr500(w, r, err)
		return
	}

	action := editAction(id)
	h.renderForm(w, r, http.StatusOK, "Edit "+park.Name, action, true, form.ParkInputFrom(*park).Values(), nil)
}

// HandleEdit serves POST /edit_park/{id}.
//
// The authorization check comes first and picks one of two separate
// paths: logged-in users update the park, everyone else sends a
// suggestion by email. The suggestion path never writes to the store.
func (h *ParkHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parkID(r)
	if !ok {
		h.pages.flashRedirect(w, r, model.FlashDanger, msgParkNotFound, "/parks")
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	in := form.DecodePark(r.PostForm)

	if session.FromContext(r.Context()).Authenticated() {
		h.applyEdit(w, r, id, in)
		return
	}
	h.suggestEdit(w, r, id, in)
}

func (h *ParkHandler) applyEdit(w http.ResponseWriter, r *http.Request, id int64, in form.ParkInput) {
	if _, err := h.parks.Update(r.Context(), id, in); err != nil {
		h.formError(w, r, err, "Edit "+in.Name, editAction(id), true, in)
		return
	}
	h.pages.flashRedirect(w, r, model.FlashSuccess, msgParkUpdated, "/parks")
}

func (h *ParkHandler) suggestEdit(w http.ResponseWriter, r *http.Request, id int64, in form.ParkInput) {
	changes, err := h.parks.SuggestEdit(r.Context(), id, in)
	switch {
	case errors.Is(err, apperror.ErrUnavailable):
		h.pages.flashRedirect(w, r, model.FlashDanger, err.Error(), "/parks")
	case err != nil:
		h.formError(w, r, err, "Edit "+in.Name, editAction(id), true, in)
	case len(changes) == 0:
		h.pages.flashRedirect(w, r, model.FlashInfo, msgNothingToSuggest, "/parks")
	default:
		h.pages.flashRedirect(w, r, model.FlashSuccess, msgSuggestionSent, "/parks")
	}
}

// HandleDelete serves POST /delete_park/{id}. RequireLogin guards it.
func (h *ParkHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parkID(r)
	if !ok {
		h.pages.flashRedirect(w, r, model.FlashDanger, msgParkNotFound, "/parks")
		return
	}

	name, err := h.parks.Delete(r.Context(), id)
	if err != nil {
		h.notFoundOr500(w, r, err)
		return
	}
	h.pages.flashRedirect(w, r, model.FlashSuccess, fmt.Sprintf("%s has been deleted.", name), "/parks")
}

// formError re-renders the park form for validation and conflict errors,
// and handles everything else like any other page error.
func (h *ParkHandler) formError(w http.ResponseWriter, r *http.Request, err error, title, action string, editing bool, in form.ParkInput) {
	var (
		ferrs  form.Errors
		appErr *apperror.AppError
	)
	switch {
	case errors.As(err, &ferrs):
		h.renderForm(w, r, http.StatusBadRequest, title, action, editing, in.Values(), ferrs)
	case errors.Is(err, apperror.ErrConflict) && errors.As(err, &appErr):
		h.renderForm(w, r, http.StatusConflict, title, action, editing, in.Values(), form.Errors{appErr.Field: appErr.Message})
	case errors.Is(err, apperror.ErrValidation) && errors.As(err, &appErr):
		h.renderForm(w, r, http.StatusBadRequest, title, action, editing, in.Values(), form.Errors{appErr.Field: appErr.Message})
	default:
		h.notFoundOr500(w, r, err)
	}
}

func (h *ParkHandler) notFoundOr500(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, apperror.ErrNotFound) {
		h.pages.flashRedirect(w, r, model.FlashDanger, msgParkNotFound, "/parks")
		return
	}
	h.logger.Error("park request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func (h *ParkHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, title, action string, editing bool, values url.Values, errs form.Errors) {
	h.pages.render(w, r, status, pageParkForm, pageData{
		Title:        title,
		Form:         values,
		Errors:       errs,
		Action:       action,
		Editing:      editing,
		RatingFields: ratingFields,
		Ratings:      ratingScale(),
	})
}

func editAction(id int64) string {
	return "/edit_park/" + strconv.FormatInt(id, 10)
}

// parkID reads the {id} URL parameter. Ids are positive integers.
func parkID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
