package resources

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spiget/spiget-api/internal/query"
	"github.com/spiget/spiget-api/internal/telemetry"
)

// FileSourceHeader names the origin of a download redirect: "external" for
// externally hosted binaries, "cdn" for files served off the mirror CDN.
const FileSourceHeader = "X-Spiget-File-Source"

// immutableCacheControl marks proxied version binaries as permanently
// cacheable. A version's binary never changes once published under its id.
const immutableCacheControl = "public, max-age=604800, immutable"

// DownloadResource resolves a resource's file to a redirect. Externally
// hosted resources go to their stored external URL; everything else goes to
// the canonical CDN location derived from the resource id and file type. An
// external resource with no stored URL is a 400, there is nothing to send the
// caller to.
func (h *Handler) DownloadResource(c *gin.Context) {
	resource := h.resourceByParam(c)
	if resource == nil {
		return
	}

	if resource.External {
		if resource.File.ExternalURL == "" {
			badRequest(c, "cannot download external resource")
			return
		}
		telemetry.ResourceDownloadsTotal.WithLabelValues("external").Inc()
		c.Header(FileSourceHeader, "external")
		c.Redirect(http.StatusFound, resource.File.ExternalURL)
		return
	}

	telemetry.ResourceDownloadsTotal.WithLabelValues("cdn").Inc()
	c.Header(FileSourceHeader, "cdn")
	c.Redirect(http.StatusFound, h.origin.CDNFileURL(resource.ID, resource.File.Type))
}

// DownloadVersion redirects to the canonical origin download URL for one
// published version.
func (h *Handler) DownloadVersion(c *gin.Context) {
	resourceID, ok := query.ParseID(c.Param("resource"))
	if !ok {
		notFound(c, "resource")
		return
	}

	version, handled := h.versionBySelector(c, resourceID)
	if handled {
		return
	}

	c.Redirect(http.StatusFound, h.origin.VersionDownloadURL(resourceID, version.ID))
}

// ProxyVersionDownload streams a version binary from the origin through this
// node. Only the master node talks to the origin; every other node delegates
// so a deployment of N mirrors produces one origin fetch, not N. The origin's
// status, filename disposition and content type are relayed verbatim; cache
// headers are overridden because the payload is immutable.
func (h *Handler) ProxyVersionDownload(c *gin.Context) {
	if !h.cfg.Server.IsMaster() {
		h.delegateToMaster(c)
		return
	}

	resourceID, ok := query.ParseID(c.Param("resource"))
	if !ok {
		notFound(c, "resource")
		return
	}

	version, handled := h.versionBySelector(c, resourceID)
	if handled {
		return
	}

	resp, err := h.origin.ProxyDownload(c.Request.Context(), resourceID, version.ID)
	if err != nil {
		telemetry.ProxiedDownloadsTotal.WithLabelValues("fetch_error").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream fetch failed"})
		return
	}
	defer resp.Body.Close()

	telemetry.ProxiedDownloadsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		c.Header("Content-Disposition", cd)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		c.Header("Content-Type", ct)
	}
	c.Header("Cache-Control", immutableCacheControl)

	c.Status(resp.StatusCode)
	// A relay failure mid-stream cannot change the already-written status;
	// the client sees a truncated body and retries.
	_, _ = io.Copy(c.Writer, resp.Body)
}
