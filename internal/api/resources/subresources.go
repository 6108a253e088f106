package resources

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiget/spiget-api/internal/db/models"
	"github.com/spiget/spiget-api/internal/query"
)

// ListReviews serves a resource's reviews, newest first by default.
func (h *Handler) ListReviews(c *gin.Context) {
	id, ok := query.ParseID(c.Param("resource"))
	if !ok {
		notFound(c, "resource")
		return
	}

	spec := query.ParseSpec(c, h.listOptions(reviewSortFields, "review_date DESC", reviewFields))
	list, total, err := h.reviews.ListForResource(c.Request.Context(), id, spec.Sort, spec.Size, spec.Offset())
	if err != nil {
		internalError(c, "list reviews", err)
		return
	}

	query.WritePage(c, spec, total, query.ProjectList(list, spec.Fields))
}

// ListUpdates serves a resource's changelog entries, newest first by default.
func (h *Handler) ListUpdates(c *gin.Context) {
	id, ok := query.ParseID(c.Param("resource"))
	if !ok {
		notFound(c, "resource")
		return
	}

	spec := query.ParseSpec(c, h.listOptions(updateSortFields, "update_date DESC", updateFields))
	list, total, err := h.updates.ListForResource(c.Request.Context(), id, spec.Sort, spec.Size, spec.Offset())
	if err != nil {
		internalError(c, "list updates", err)
		return
	}

	query.WritePage(c, spec, total, query.ProjectList(list, spec.Fields))
}

// GetUpdate serves a single changelog entry addressed by numeric id or
// "latest". Changelog entries have no token identifiers, so a token-length
// segment is simply not found.
func (h *Handler) GetUpdate(c *gin.Context) {
	resourceID, ok := query.ParseID(c.Param("resource"))
	if !ok {
		notFound(c, "resource")
		return
	}

	sel, ok := query.ResolveSelector(c.Param("update"))
	if !ok || sel.Kind == query.SelectByToken {
		notFound(c, "update")
		return
	}

	var (
		update *models.Update
		err    error
	)
	switch sel.Kind {
	case query.SelectLatest:
		update, err = h.updates.GetLatest(c.Request.Context(), resourceID)
	case query.SelectByID:
		update, err = h.updates.GetByID(c.Request.Context(), resourceID, sel.ID)
	}
	if err != nil {
		internalError(c, "get update", err)
		return
	}
	if update == nil {
		notFound(c, "update")
		return
	}

	c.JSON(http.StatusOK, update)
}

// ListVersions serves a resource's published versions, newest first by
// default.
func (h *Handler) ListVersions(c *gin.Context) {
	id, ok := query.ParseID(c.Param("resource"))
	if !ok {
		notFound(c, "resource")
		return
	}

	spec := query.ParseSpec(c, h.listOptions(versionSortFields, "release_date DESC", versionFields))
	list, total, err := h.versions.ListForResource(c.Request.Context(), id, spec.Sort, spec.Size, spec.Offset())
	if err != nil {
		internalError(c, "list versions", err)
		return
	}

	query.WritePage(c, spec, total, query.ProjectList(list, spec.Fields))
}

// GetVersion serves a single version addressed by numeric id, token, or
// "latest".
func (h *Handler) GetVersion(c *gin.Context) {
	resourceID, ok := query.ParseID(c.Param("resource"))
	if !ok {
		notFound(c, "resource")
		return
	}

	version, handled := h.versionBySelector(c, resourceID)
	if handled {
		return
	}

	c.JSON(http.StatusOK, version)
}

// versionBySelector resolves the :version path segment against a resource.
// When handled is true an error response has already been written.
func (h *Handler) versionBySelector(c *gin.Context, resourceID int64) (*models.Version, bool) {
	sel, ok := query.ResolveSelector(c.Param("version"))
	if !ok {
		notFound(c, "version")
		return nil, true
	}

	var (
		version *models.Version
		err     error
	)
	switch sel.Kind {
	case query.SelectLatest:
		version, err = h.versions.GetLatest(c.Request.Context(), resourceID)
	case query.SelectByID:
		version, err = h.versions.GetByID(c.Request.Context(), resourceID, sel.ID)
	case query.SelectByToken:
		version, err = h.versions.GetByToken(c.Request.Context(), resourceID, sel.Token)
	}
	if err != nil {
		internalError(c, "get version", err)
		return nil, true
	}
	if version == nil {
		notFound(c, "version")
		return nil, true
	}
	return version, false
}
