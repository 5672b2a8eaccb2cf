package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/rest"
	"github.com/querygate-inc/querygate-engine/pkg/shape"
)

// Query-string keys the REST collection endpoint treats as controls rather
// than column filters.
const (
	restParamLimit   = "limit"
	restParamOffset  = "offset"
	restParamSortBy  = "sort_by"
	restParamSortDir = "sort_dir"
)

// RESTHandler serves CRUD verbs against /rest/{table} paths.
type RESTHandler struct {
	translator *rest.Translator
	logger     *zap.Logger
}

// NewRESTHandler creates a new REST handler over the translator.
func NewRESTHandler(translator *rest.Translator, logger *zap.Logger) *RESTHandler {
	return &RESTHandler{translator: translator, logger: logger}
}

// RegisterRoutes registers the REST endpoints on the given mux.
func (h *RESTHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /rest/{table}", h.List)
	mux.HandleFunc("POST /rest/{table}", h.Create)
	mux.HandleFunc("GET /rest/{table}/{id}", h.Get)
	mux.HandleFunc("PUT /rest/{table}/{id}", h.Update)
	mux.HandleFunc("DELETE /rest/{table}/{id}", h.Delete)
}

// List handles GET /rest/{table}.
func (h *RESTHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := rest.ListOptions{Filters: map[string]string{}}
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[0]
		switch key {
		case restParamLimit:
			opts.Limit, _ = strconv.Atoi(value)
		case restParamOffset:
			opts.Offset, _ = strconv.Atoi(value)
		case restParamSortBy:
			opts.SortBy = value
		case restParamSortDir:
			opts.SortDir = value
		default:
			opts.Filters[key] = value
		}
	}

	result, err := h.translator.List(r.Context(), r.PathValue("table"), opts)
	h.respond(w, result, err)
}

// Get handles GET /rest/{table}/{id}.
func (h *RESTHandler) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.translator.GetByID(r.Context(), r.PathValue("table"), r.PathValue("id"))
	h.respond(w, result, err)
}

// Create handles POST /rest/{table}.
func (h *RESTHandler) Create(w http.ResponseWriter, r *http.Request) {
	data, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	result, err := h.translator.Create(r.Context(), r.PathValue("table"), data)
	h.respond(w, result, err)
}

// Update handles PUT /rest/{table}/{id}.
func (h *RESTHandler) Update(w http.ResponseWriter, r *http.Request) {
	data, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	result, err := h.translator.Update(r.Context(), r.PathValue("table"), r.PathValue("id"), data)
	h.respond(w, result, err)
}

// Delete handles DELETE /rest/{table}/{id}.
func (h *RESTHandler) Delete(w http.ResponseWriter, r *http.Request) {
	result, err := h.translator.Delete(r.Context(), r.PathValue("table"), r.PathValue("id"))
	h.respond(w, result, err)
}

func (h *RESTHandler) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "validation_error", "request body must be a JSON object")
		return nil, false
	}
	return data, true
}

func (h *RESTHandler) respond(w http.ResponseWriter, result shape.ObjectResult, err error) {
	if err != nil {
		_ = writePipelineError(w, err)
		return
	}
	if result == nil {
		result = shape.ObjectResult{}
	}
	if err := WriteJSON(w, http.StatusOK, QueryResponse{Response: result}); err != nil {
		h.logger.Error("Failed to encode REST response", zap.Error(err))
	}
}
