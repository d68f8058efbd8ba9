package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"docgraph/application/services"
	"docgraph/pkg/common"
	pkgerrors "docgraph/pkg/errors"
)

// GraphHandler handles graph-related HTTP requests
type GraphHandler struct {
	svc    *services.DocumentService
	logger *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(svc *services.DocumentService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{svc: svc, logger: logger}
}

// GetGraph handles GET /graph. It accepts the same tags and q filters as
// the document list, so a filtered view gets a matching graph.
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph(r.Context(), parseListFilter(r))
	if err != nil {
		h.respondAppError(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, g)
}

// GetLayout handles GET /graph/layout?zoom=&selected=
func (h *GraphHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	zoom, err := strconv.ParseFloat(r.URL.Query().Get("zoom"), 64)
	if err != nil {
		common.RespondError(w, http.StatusBadRequest, "VALIDATION", "zoom must be a number")
		return
	}

	selected := 0
	if raw := r.URL.Query().Get("selected"); raw != "" {
		selected, err = strconv.Atoi(raw)
		if err != nil || selected < 0 {
			common.RespondError(w, http.StatusBadRequest, "VALIDATION", "selected must be a non-negative integer")
			return
		}
	}

	centerX := queryFloat(r, "cx", 0)
	centerY := queryFloat(r, "cy", 0)

	view, err := h.svc.Layout(r.Context(), zoom, selected, centerX, centerY)
	if err != nil {
		h.respondAppError(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, view)
}

// GetTags handles GET /tags
func (h *GraphHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		h.respondAppError(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, tags)
}

// GetClusters handles GET /tags/clusters
func (h *GraphHandler) GetClusters(w http.ResponseWriter, r *http.Request) {
	clusters, err := h.svc.Clusters(r.Context())
	if err != nil {
		h.respondAppError(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, clusters)
}

func (h *GraphHandler) respondAppError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := pkgerrors.AsAppError(err)
	if appErr.HTTPStatus >= 500 {
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	common.RespondErrorWithDetails(w, appErr.HTTPStatus, string(appErr.Type), appErr.Message, appErr.Details)
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}
