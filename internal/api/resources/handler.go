// Package resources implements the public catalog HTTP surface: resource
// lists, single-entity reads, download resolution, the master-only download
// proxy, and update-request intake.
//
// Error bodies are JSON everywhere except redirects and binary streams.
// A missing entity is always `{"error": "<kind> not found"}` with status 404.
// Store failures surface as a generic 500 body; the details go to the log,
// never to the caller.
package resources

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spiget/spiget-api/internal/cache"
	"github.com/spiget/spiget-api/internal/config"
	"github.com/spiget/spiget-api/internal/db/models"
	"github.com/spiget/spiget-api/internal/db/repositories"
	"github.com/spiget/spiget-api/internal/query"
	"github.com/spiget/spiget-api/internal/upstream"
)

// Handler serves all resource catalog endpoints.
type Handler struct {
	cfg            *config.Config
	resources      *repositories.ResourceRepository
	authors        *repositories.AuthorRepository
	reviews        *repositories.ReviewRepository
	updates        *repositories.UpdateRepository
	versions       *repositories.VersionRepository
	updateRequests *repositories.UpdateRequestRepository
	origin         *upstream.Client
	enrichCache    cache.Cache
}

// NewHandler wires the catalog handler. Read repositories should be built on
// the reader pool; updateRequests must be built on the primary.
func NewHandler(
	cfg *config.Config,
	resources *repositories.ResourceRepository,
	authors *repositories.AuthorRepository,
	reviews *repositories.ReviewRepository,
	updates *repositories.UpdateRepository,
	versions *repositories.VersionRepository,
	updateRequests *repositories.UpdateRequestRepository,
	origin *upstream.Client,
	enrichCache cache.Cache,
) *Handler {
	return &Handler{
		cfg:            cfg,
		resources:      resources,
		authors:        authors,
		reviews:        reviews,
		updates:        updates,
		versions:       versions,
		updateRequests: updateRequests,
		origin:         origin,
		enrichCache:    enrichCache,
	}
}

// Register mounts every catalog route on the given group.
func (h *Handler) Register(res *gin.RouterGroup) {
	res.GET("", h.ListAll)
	res.GET("/new", h.ListNew)
	res.GET("/recentUpdates", h.ListRecentUpdates)
	res.GET("/premium", h.ListPremium)
	res.GET("/free", h.ListFree)
	res.GET("/for/:versions", h.ListForVersions)

	res.GET("/:resource", h.GetResource)
	res.GET("/:resource/go", h.GoToPage)
	res.GET("/:resource/author", h.GetAuthor)
	res.GET("/:resource/reviews", h.ListReviews)
	res.GET("/:resource/updates", h.ListUpdates)
	res.GET("/:resource/updates/:update", h.GetUpdate)
	res.GET("/:resource/versions", h.ListVersions)
	res.GET("/:resource/versions/:version", h.GetVersion)
	res.GET("/:resource/versions/:version/download", h.DownloadVersion)
	res.GET("/:resource/versions/:version/download/proxy", h.ProxyVersionDownload)
	res.GET("/:resource/icon", h.GetIcon)
	res.GET("/:resource/icon/:type", h.GetIcon)
	res.GET("/:resource/download", h.DownloadResource)

	res.POST("/:resource/requestUpdate", h.RequestUpdate)
}

// Projection whitelists per entity, in wire field names.
var (
	resourceFields = []string{
		"id", "name", "tag", "contributors", "likes", "file", "testedVersions",
		"links", "rating", "releaseDate", "updateDate", "downloads", "external",
		"icon", "premium", "price", "currency", "author", "category", "version",
	}
	reviewFields  = []string{"id", "resource", "author", "rating", "message", "responseMessage", "version", "date"}
	updateFields  = []string{"id", "resource", "title", "description", "date", "likes"}
	versionFields = []string{"id", "uuid", "name", "releaseDate", "downloads", "rating", "resource"}
)

// Sortable fields per entity, wire name to column.
var (
	resourceSortFields = map[string]string{
		"id":          "id",
		"name":        "name",
		"downloads":   "downloads",
		"likes":       "likes",
		"releaseDate": "release_date",
		"updateDate":  "update_date",
		"rating":      "rating_average",
	}
	reviewSortFields = map[string]string{
		"id":     "id",
		"date":   "review_date",
		"rating": "rating_average",
	}
	updateSortFields = map[string]string{
		"id":    "id",
		"date":  "update_date",
		"likes": "likes",
	}
	versionSortFields = map[string]string{
		"id":          "id",
		"name":        "name",
		"releaseDate": "release_date",
		"downloads":   "downloads",
		"rating":      "rating_average",
	}
)

func (h *Handler) listOptions(sortFields map[string]string, defaultSort string, fields []string) query.Options {
	return query.Options{
		DefaultSize: h.cfg.Pagination.DefaultSize,
		MaxSize:     h.cfg.Pagination.MaxSize,
		SortFields:  sortFields,
		DefaultSort: defaultSort,
		Fields:      fields,
	}
}

func notFound(c *gin.Context, kind string) {
	c.JSON(http.StatusNotFound, gin.H{"error": kind + " not found"})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// internalError logs the failure and returns the generic 500 body. Store
// errors never leak their details to the caller.
func internalError(c *gin.Context, op string, err error) {
	slog.Error("request failed", "op", op, "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// delegateToMaster redirects a master-only operation to the master node's
// equivalent URL. 307 keeps the method and body intact across the hop, which
// matters for the POST intake endpoint.
func (h *Handler) delegateToMaster(c *gin.Context) {
	target := h.cfg.Server.MasterURL + c.Request.URL.RequestURI()
	c.Redirect(http.StatusTemporaryRedirect, target)
}

// resourceByParam loads the resource named by the :resource path segment.
// Writes the error response and returns nil when the segment is malformed or
// the resource is absent; callers just check for nil.
func (h *Handler) resourceByParam(c *gin.Context) *models.Resource {
	id, ok := query.ParseID(c.Param("resource"))
	if !ok {
		notFound(c, "resource")
		return nil
	}
	resource, err := h.resources.GetByID(c.Request.Context(), id)
	if err != nil {
		internalError(c, "get resource", err)
		return nil
	}
	if resource == nil {
		notFound(c, "resource")
		return nil
	}
	return resource
}
