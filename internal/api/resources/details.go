package resources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiget/spiget-api/internal/cache"
	"github.com/spiget/spiget-api/internal/query"
	"github.com/spiget/spiget-api/internal/safego"
	"github.com/spiget/spiget-api/internal/telemetry"
)

// GetResource serves a single resource, merged with the origin's live detail
// payload when the origin is reachable. Enrichment never fails the request;
// a failed or timed out origin call just means the stored record is served
// unmerged.
func (h *Handler) GetResource(c *gin.Context) {
	resource := h.resourceByParam(c)
	if resource == nil {
		return
	}

	merged := query.Project(resource, nil)

	if detail := h.enrichment(c.Request.Context(), resource.ID); detail != nil {
		for k, v := range detail {
			merged[k] = v
		}
	}

	spec := query.ParseSpec(c, h.listOptions(resourceSortFields, "id ASC", resourceFields))
	c.JSON(http.StatusOK, query.Project(merged, spec.Fields))
}

// enrichment returns the origin's detail payload for a resource, or nil when
// it cannot be had in time. Results are cached; cache writes happen off the
// request path.
func (h *Handler) enrichment(ctx context.Context, resourceID int64) map[string]any {
	key := fmt.Sprintf("enrich:resource:%d", resourceID)

	var cached map[string]any
	err := h.enrichCache.GetJSON(ctx, key, &cached)
	if err == nil {
		return cached
	}
	if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("enrichment cache read failed", "resource", resourceID, "error", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, h.cfg.Upstream.RequestTimeout)
	defer cancel()

	detail, err := h.origin.FetchResourceDetail(fetchCtx, resourceID)
	if err != nil {
		telemetry.UpstreamEnrichmentFailuresTotal.Inc()
		slog.Debug("enrichment fetch failed", "resource", resourceID, "error", err)
		return nil
	}

	safego.Go("enrichment-cache-write", func() {
		writeCtx, cancel := context.WithTimeout(context.Background(), h.cfg.Upstream.RequestTimeout)
		defer cancel()
		if err := h.enrichCache.SetJSON(writeCtx, key, detail); err != nil {
			slog.Warn("enrichment cache write failed", "resource", resourceID, "error", err)
		}
	})

	return detail
}

// GoToPage redirects to the resource's human-facing marketplace page.
func (h *Handler) GoToPage(c *gin.Context) {
	resource := h.resourceByParam(c)
	if resource == nil {
		return
	}
	c.Redirect(http.StatusFound, h.origin.ResourcePageURL(resource.ID))
}

// GetAuthor serves the author of a resource.
func (h *Handler) GetAuthor(c *gin.Context) {
	id, ok := query.ParseID(c.Param("resource"))
	if !ok {
		notFound(c, "resource")
		return
	}

	author, err := h.authors.GetForResource(c.Request.Context(), id)
	if err != nil {
		internalError(c, "get resource author", err)
		return
	}
	if author == nil {
		notFound(c, "author")
		return
	}

	c.JSON(http.StatusOK, author)
}
