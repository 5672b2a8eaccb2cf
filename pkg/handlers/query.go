package handlers

import (
	"encoding/json"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/querygate-inc/querygate-engine/pkg/backend"
	"github.com/querygate-inc/querygate-engine/pkg/gateway"
	"github.com/querygate-inc/querygate-engine/pkg/jsonutil"
	"github.com/querygate-inc/querygate-engine/pkg/logging"
)

// QueryRequest is the body of the query endpoints. Exactly one of SQL or
// Transaction is expected; params are decoded leniently and validated by the
// gateway.
type QueryRequest struct {
	SQL         string             `json:"sql,omitempty"`
	Params      json.RawMessage    `json:"params,omitempty"`
	Transaction []queryRequestElem `json:"transaction,omitempty"`
}

type queryRequestElem struct {
	SQL    string          `json:"sql"`
	Params json.RawMessage `json:"params,omitempty"`
}

// QueryResponse wraps the pipeline result for the wire.
type QueryResponse struct {
	Response any `json:"response"`
}

// QueryHandler serves the raw and object-mode query endpoints.
type QueryHandler struct {
	gw     *gateway.Gateway
	logger *zap.Logger
}

// NewQueryHandler creates a new query handler over the pipeline.
func NewQueryHandler(gw *gateway.Gateway, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{gw: gw, logger: logger}
}

// RegisterRoutes registers the query endpoints on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /query", func(w http.ResponseWriter, r *http.Request) {
		h.handle(w, r, false)
	})
	mux.HandleFunc("POST /query/raw", func(w http.ResponseWriter, r *http.Request) {
		h.handle(w, r, true)
	})
}

func (h *QueryHandler) handle(w http.ResponseWriter, r *http.Request, isRaw bool) {
	if mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mediaType != "application/json" {
		_ = ErrorResponse(w, http.StatusUnsupportedMediaType, "validation_error", "Content-Type must be application/json")
		return
	}

	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "validation_error", "invalid JSON body")
		return
	}

	if len(req.Transaction) > 0 {
		h.handleBatch(w, r, req.Transaction, isRaw)
		return
	}

	params, err := jsonutil.DecodeParams(req.Params)
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	result, err := h.gw.Query(r.Context(), gateway.QueryDescriptor{SQL: req.SQL, Params: params}, isRaw)
	if err != nil {
		h.logger.Warn("Query failed",
			zap.String("query", logging.SanitizeQuery(req.SQL)),
			zap.Error(err))
		_ = writePipelineError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, QueryResponse{Response: resultPayload(result, isRaw)}); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}

func (h *QueryHandler) handleBatch(w http.ResponseWriter, r *http.Request, elems []queryRequestElem, isRaw bool) {
	queries := make([]gateway.QueryDescriptor, 0, len(elems))
	for _, elem := range elems {
		params, err := jsonutil.DecodeParams(elem.Params)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
			return
		}
		queries = append(queries, gateway.QueryDescriptor{SQL: elem.SQL, Params: params})
	}

	results, err := h.gw.Batch(r.Context(), queries, isRaw)
	if err != nil {
		h.logger.Warn("Transaction batch failed", zap.Int("queries", len(queries)), zap.Error(err))
		_ = writePipelineError(w, err)
		return
	}

	payload := make([]any, len(results))
	for i, result := range results {
		payload[i] = resultPayload(result, isRaw)
	}
	if err := WriteJSON(w, http.StatusOK, QueryResponse{Response: payload}); err != nil {
		h.logger.Error("Failed to encode batch response", zap.Error(err))
	}
}

// resultPayload picks the wire shape matching the endpoint mode.
func resultPayload(result *backend.Result, isRaw bool) any {
	if isRaw && result.Raw != nil {
		return result.Raw
	}
	return result.Objects
}
