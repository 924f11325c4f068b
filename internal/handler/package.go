package handler

import (
	"log/slog"
	"net/http"

	"packtree/internal/domain/services"
	"packtree/internal/httputil"
)

// PackageHandler handles exercise package HTTP requests
type PackageHandler struct {
	packageService services.PackageService
	logger         *slog.Logger
}

// NewPackageHandler creates a new package handler
func NewPackageHandler(packageService services.PackageService, logger *slog.Logger) *PackageHandler {
	return &PackageHandler{
		packageService: packageService,
		logger:         logger,
	}
}

// ListDetails lists the packages of a subcategory in display order
// GET /get_details/{cat_id}/{sub_id}/
func (h *PackageHandler) ListDetails(w http.ResponseWriter, r *http.Request) {
	if _, err := pathID(r, "cat_id"); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	subID, err := pathID(r, "sub_id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pkgs, err := h.packageService.ListByNode(r.Context(), subID)
	if err != nil {
		handleError(w, err)
		return
	}

	items := make([]packageItemResponse, 0, len(pkgs))
	for i := range pkgs {
		items = append(items, toPackageItemResponse(&pkgs[i]))
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// Get retrieves a single package
// GET /package/{id}/
func (h *PackageHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	pkg, err := h.packageService.Get(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, toPackageResponse(pkg))
}

type createPackageBody struct {
	Title      string  `json:"title"`
	NodeID     flexID  `json:"node_id"`
	Desc       string  `json:"desc"`
	RefID      flexID  `json:"ref_id"`
	Direction  string  `json:"direction"`
	Created    *string `json:"created"`
	Changed    *string `json:"changed"`
	Assignment string  `json:"assignment"`
}

// Create creates a package under a node, positioned next to a reference
// package when ref_id and direction are supplied
// POST /package/
func (h *PackageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createPackageBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if body.NodeID.Value == nil {
		httputil.RespondError(w, http.StatusBadRequest, "node_id required")
		return
	}

	req := &services.CreatePackageRequest{
		Title:      body.Title,
		NodeID:     *body.NodeID.Value,
		Desc:       body.Desc,
		Placement:  placementFrom(body.RefID, body.Direction, nil),
		Created:    dateFromPayload(body.Created),
		Changed:    dateFromPayload(body.Changed),
		Assignment: body.Assignment,
	}

	pkg, err := h.packageService.Create(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, toPackageResponse(pkg))
}

type updatePackageBody struct {
	Title      *string                 `json:"title"`
	Desc       *string                 `json:"desc"`
	Created    *string                 `json:"created"`
	Changed    *string                 `json:"changed"`
	NodeID     flexID                  `json:"node_id"`
	SortOrder  *int                    `json:"sort_order"`
	Direction  string                  `json:"direction"`
	RefID      flexID                  `json:"ref_pkg_id"`
	Assignment httputil.OptionalString `json:"assignment"`
}

// Update edits fields, reorders within the node, or moves the package to
// another node
// PATCH /package/{id}/
func (h *PackageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var body updatePackageBody
	if err := httputil.ParseJSON(w, r, &body); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A reparent target must be a real id; a bad reference id merely falls
	// back to append-at-end further down.
	if body.NodeID.Invalid {
		httputil.RespondError(w, http.StatusBadRequest, "invalid node_id")
		return
	}

	req := &services.UpdatePackageRequest{
		Title:     body.Title,
		Desc:      body.Desc,
		Created:   dateFromPayload(body.Created),
		Changed:   dateFromPayload(body.Changed),
		NodeID:    body.NodeID.Value,
		Placement: placementFrom(body.RefID, body.Direction, body.SortOrder),
	}
	if body.Assignment.Present {
		if body.Assignment.Value == nil {
			req.ClearAssignment = true
		} else {
			req.Assignment = body.Assignment.Value
		}
	}

	pkg, err := h.packageService.Update(r.Context(), id, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, toPackageResponse(pkg))
}

// Delete removes a package and closes the sort gap it leaves behind
// DELETE /package/{id}/
func (h *PackageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.packageService.Delete(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
