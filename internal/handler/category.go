package handler

import (
	"log/slog"
	"net/http"

	"packtree/internal/domain/models"
	"packtree/internal/domain/services"
	"packtree/internal/httputil"
)

// CategoryHandler handles tree node HTTP requests
type CategoryHandler struct {
	categoryService services.CategoryService
	logger          *slog.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService services.CategoryService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// ListRoots lists the root categories in display order
// GET /categories/
func (h *CategoryHandler) ListRoots(w http.ResponseWriter, r *http.Request) {
	nodes, err := h.categoryService.ListRoots(r.Context())
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nodeResponses(nodes))
}

// ListSubcategories lists the children of one category
// GET /get_subcategories/{id}/
func (h *CategoryHandler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	nodes, err := h.categoryService.ListChildren(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nodeResponses(nodes))
}

type createCategoryBody struct {
	Name      string  `json:"name"`
	ParentID  flexID  `json:"parent_id"`
	RefID     flexID  `json:"ref_id"`
	Direction string  `json:"direction"`
	Created   *string `json:"created"`
	Changed   *string `json:"changed"`
}

// Create creates a category, positioned next to a reference sibling when
// ref_id and direction are supplied
// POST /category/
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createCategoryBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := &services.CreateCategoryRequest{
		Name:      body.Name,
		ParentID:  body.ParentID.Value,
		Placement: placementFrom(body.RefID, body.Direction, nil),
		Created:   dateFromPayload(body.Created),
		Changed:   dateFromPayload(body.Changed),
	}

	node, err := h.categoryService.Create(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, toNodeResponse(node))
}

type updateCategoryBody struct {
	Name    *string `json:"name"`
	Created *string `json:"created"`
	Changed *string `json:"changed"`
}

// Update renames a category and/or updates its dates
// PATCH /category/{id}/
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body updateCategoryBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := &services.UpdateCategoryRequest{
		Name:    body.Name,
		Created: dateFromPayload(body.Created),
		Changed: dateFromPayload(body.Changed),
	}

	node, err := h.categoryService.Update(r.Context(), id, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, toNodeResponse(node))
}

// Delete removes a category together with its subtree and packages
// DELETE /category/{id}/
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.categoryService.Delete(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func nodeResponses(nodes []models.TreeNode) []nodeResponse {
	out := make([]nodeResponse, 0, len(nodes))
	for i := range nodes {
		out = append(out, toNodeResponse(&nodes[i]))
	}
	return out
}
