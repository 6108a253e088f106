package resources

import (
	_ "embed"
	"encoding/base64"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed assets/default_icon.png
var defaultIcon []byte

// GetIcon serves a resource's icon. Stored image bytes win; a stored URL
// falls back to a redirect against the origin site; a resource with neither
// gets the bundled placeholder so image tags never break.
func (h *Handler) GetIcon(c *gin.Context) {
	resource := h.resourceByParam(c)
	if resource == nil {
		return
	}

	if resource.Icon.Data != "" {
		img, err := base64.StdEncoding.DecodeString(resource.Icon.Data)
		if err == nil {
			c.Data(http.StatusOK, iconContentType(c.Param("type")), img)
			return
		}
		slog.Warn("stored icon data is not valid base64", "resource", resource.ID, "error", err)
	}

	if resource.Icon.URL != "" {
		c.Redirect(http.StatusFound, h.iconURL(resource.Icon.URL))
		return
	}

	c.Data(http.StatusOK, "image/png", defaultIcon)
}

// iconURL resolves a stored icon reference to an absolute URL. The ingestion
// pipeline stores origin-relative paths; absolute URLs pass through untouched.
func (h *Handler) iconURL(stored string) string {
	if strings.HasPrefix(stored, "http://") || strings.HasPrefix(stored, "https://") {
		return stored
	}
	return strings.TrimRight(h.cfg.Upstream.SiteURL, "/") + "/" + strings.TrimLeft(stored, "/")
}

// iconContentType maps the optional :type path segment to a MIME type.
func iconContentType(typ string) string {
	switch strings.ToLower(strings.TrimPrefix(typ, ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
