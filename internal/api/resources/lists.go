package resources

import (
	"github.com/gin-gonic/gin"

	"github.com/spiget/spiget-api/internal/db/repositories"
	"github.com/spiget/spiget-api/internal/query"
	"github.com/spiget/spiget-api/internal/validation"
)

// ListAll serves the unrestricted resource list.
func (h *Handler) ListAll(c *gin.Context) {
	h.listResources(c, repositories.ResourceFilter{Kind: repositories.FilterAll}, "id ASC")
}

// ListNew serves resources that were never updated since first publish.
func (h *Handler) ListNew(c *gin.Context) {
	h.listResources(c, repositories.ResourceFilter{Kind: repositories.FilterNew}, "release_date DESC")
}

// ListRecentUpdates serves resources updated within the recent-update window.
func (h *Handler) ListRecentUpdates(c *gin.Context) {
	h.listResources(c, repositories.ResourceFilter{Kind: repositories.FilterRecentUpdates}, "update_date DESC")
}

// ListPremium serves paid resources only.
func (h *Handler) ListPremium(c *gin.Context) {
	h.listResources(c, repositories.ResourceFilter{Kind: repositories.FilterPremium}, "id ASC")
}

// ListFree serves free resources only.
func (h *Handler) ListFree(c *gin.Context) {
	h.listResources(c, repositories.ResourceFilter{Kind: repositories.FilterFree}, "id ASC")
}

// ListForVersions serves resources tested against the requested game versions.
// method=any matches resources tested on at least one requested version,
// method=all only resources tested on every one. Any other method is a 400.
func (h *Handler) ListForVersions(c *gin.Context) {
	method := c.DefaultQuery("method", repositories.MatchAny)
	if method != repositories.MatchAny && method != repositories.MatchAll {
		badRequest(c, "Unknown method. Allowed: any, all")
		return
	}

	versions := validation.ParseGameVersions(c.Param("versions"))
	if len(versions) == 0 {
		// Nothing parseable to match on; an empty page, not an error.
		spec := query.ParseSpec(c, h.listOptions(resourceSortFields, "id ASC", resourceFields))
		query.WritePage(c, spec, 0, nil)
		return
	}

	h.listResources(c, repositories.ResourceFilter{
		Kind:     repositories.FilterForVersions,
		Versions: versions,
		Mode:     method,
	}, "id ASC")
}

func (h *Handler) listResources(c *gin.Context, filter repositories.ResourceFilter, defaultSort string) {
	spec := query.ParseSpec(c, h.listOptions(resourceSortFields, defaultSort, resourceFields))

	list, total, err := h.resources.List(c.Request.Context(), filter, spec.Sort, spec.Size, spec.Offset())
	if err != nil {
		internalError(c, "list resources", err)
		return
	}

	query.WritePage(c, spec, total, query.ProjectList(list, spec.Fields))
}
