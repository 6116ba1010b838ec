package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/teemow/courses/internal/category"
	"github.com/teemow/courses/internal/logging"
	"github.com/teemow/courses/internal/shopping"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// errReadOnly is returned by write routes when the server is read-only.
var errReadOnly = errors.New("server is read-only")

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse is the JSON body of successful deletions.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ListRequest is the body of list creation and renaming.
type ListRequest struct {
	Name string `json:"name"`
}

// API serves the shopping service as JSON over HTTP.
type API struct {
	sc *ServerContext
}

// NewAPI creates the REST API for sc.
func NewAPI(sc *ServerContext) *API {
	return &API{sc: sc}
}

// RegisterRoutes registers the /api routes on mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/lists", a.listLists)
	mux.HandleFunc("POST /api/lists", a.write(a.createList))
	mux.HandleFunc("PUT /api/lists/{id}", a.write(a.renameList))
	mux.HandleFunc("DELETE /api/lists/{id}", a.write(a.deleteList))

	mux.HandleFunc("GET /api/lists/{listId}/items", a.listItems)
	mux.HandleFunc("POST /api/lists/{listId}/items", a.write(a.createItem))
	mux.HandleFunc("PUT /api/items/{id}", a.write(a.updateItem))
	mux.HandleFunc("DELETE /api/items/{id}", a.write(a.deleteItem))

	mux.HandleFunc("GET /api/categories", a.categories)
	mux.HandleFunc("GET /api/frequent-items", a.frequentItems)
}

func (a *API) listLists(w http.ResponseWriter, r *http.Request) {
	lists, err := a.sc.Service().ListLists(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lists)
}

func (a *API) createList(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	list, err := a.sc.Service().CreateList(r.Context(), req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (a *API) renameList(w http.ResponseWriter, r *http.Request) {
	var req ListRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	list, err := a.sc.Service().RenameList(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) deleteList(w http.ResponseWriter, r *http.Request) {
	if err := a.sc.Service().DeleteList(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

func (a *API) listItems(w http.ResponseWriter, r *http.Request) {
	items, err := a.sc.Service().ListItems(r.Context(), r.PathValue("listId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (a *API) createItem(w http.ResponseWriter, r *http.Request) {
	var in shopping.NewItem
	if err := decodeBody(r, &in); err != nil {
		a.writeError(w, r, err)
		return
	}
	item, err := a.sc.Service().CreateItem(r.Context(), r.PathValue("listId"), in)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (a *API) updateItem(w http.ResponseWriter, r *http.Request) {
	var patch shopping.ItemPatch
	if err := decodeBody(r, &patch); err != nil {
		a.writeError(w, r, err)
		return
	}
	item, err := a.sc.Service().UpdateItem(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (a *API) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := a.sc.Service().DeleteItem(r.Context(), r.PathValue("id")); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// categories does not need a principal: the catalogue is the same for
// everyone.
func (a *API) categories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, category.All())
}

func (a *API) frequentItems(w http.ResponseWriter, r *http.Request) {
	items, err := a.sc.Service().FrequentItems(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// write rejects the request while the server is read-only.
func (a *API) write(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.sc.ReadOnly() {
			a.writeError(w, r, errReadOnly)
			return
		}
		h(w, r)
	}
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusForError(err)
	logger := logging.WithOperation(a.sc.Logger(), r.Method+" "+r.Pattern)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.Int("status", status), logging.Err(err))
	} else {
		logger.Debug("request rejected", slog.Int("status", status), logging.Err(err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// StatusForError maps the shopping error taxonomy onto HTTP status codes.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, shopping.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shopping.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shopping.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, shopping.ErrMalformedRecord):
		return http.StatusUnprocessableEntity
	case errors.Is(err, shopping.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, shopping.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, errReadOnly):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %w", shopping.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
