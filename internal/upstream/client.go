// Package upstream talks to the origin marketplace this catalog mirrors. It
// builds the canonical site, CDN and download URLs, fetches best-effort
// enrichment payloads from the origin API, and performs the master node's
// streaming download proxy.
//
// Two HTTP clients with separate timeouts back the package: a short one for
// enrichment API calls that sit on the serving path of single-resource reads,
// and a long one for download relays, which stream multi-megabyte binaries.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/spiget/spiget-api/internal/config"
)

// Client is the origin marketplace client.
type Client struct {
	siteURL   string
	apiURL    string
	cdnURL    string
	userAgent string

	api      *http.Client
	download *http.Client
}

// NewClient builds a Client from the upstream configuration. userAgent is the
// identifying client signature sent on every origin request.
func NewClient(cfg config.UpstreamConfig, userAgent string) *Client {
	return &Client{
		siteURL:   strings.TrimRight(cfg.SiteURL, "/"),
		apiURL:    strings.TrimRight(cfg.APIURL, "/"),
		cdnURL:    strings.TrimRight(cfg.CDNURL, "/"),
		userAgent: userAgent,
		api:       &http.Client{Timeout: cfg.RequestTimeout},
		download:  &http.Client{Timeout: cfg.DownloadTimeout},
	}
}

// ResourcePageURL returns the human-facing marketplace page for a resource.
func (c *Client) ResourcePageURL(resourceID int64) string {
	return fmt.Sprintf("%s/resources/%d", c.siteURL, resourceID)
}

// VersionDownloadURL returns the canonical origin download URL for a specific
// published version of a resource.
func (c *Client) VersionDownloadURL(resourceID, versionID int64) string {
	return fmt.Sprintf("%s/resources/%d/download?version=%d", c.siteURL, resourceID, versionID)
}

// CDNFileURL returns the CDN location of a resource's binary. fileType is the
// stored artifact extension (".jar", ".zip"); a missing leading dot is
// tolerated and ".jar" is assumed when the type is unknown.
func (c *Client) CDNFileURL(resourceID int64, fileType string) string {
	ext := fileType
	if ext == "" {
		ext = ".jar"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s/%d%s", c.cdnURL, resourceID, ext)
}

// FetchResourceDetail calls the origin API for a resource's live detail
// payload. The result is the raw JSON object so callers can merge it field by
// field over the stored record. Any non-200 origin response is an error.
func (c *Client) FetchResourceDetail(ctx context.Context, resourceID int64) (map[string]any, error) {
	u := fmt.Sprintf("%s/v2/resources/%d", c.apiURL, resourceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build enrichment request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.api.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enrichment request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrichment request returned status %d", resp.StatusCode)
	}

	var detail map[string]any
	if err := decodeJSON(resp, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode enrichment payload: %w", err)
	}
	return detail, nil
}

// ProxyDownload performs the streaming fetch behind the master node's download
// proxy. The caller owns the response body and must close it. Transport-level
// failures return an error; origin HTTP error statuses do not, the response is
// handed back for verbatim relay either way.
func (c *Client) ProxyDownload(ctx context.Context, resourceID, versionID int64) (*http.Response, error) {
	u := c.VersionDownloadURL(resourceID, versionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.download.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download fetch failed: %w", err)
	}
	return resp, nil
}

// ValidateBaseURL checks that a configured upstream URL is absolute http(s).
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid upstream URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid upstream URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid upstream URL %q: missing host", raw)
	}
	return nil
}

// decodeJSON decodes an origin response body, capped at 4 MiB. Enrichment
// payloads are small; the cap keeps a misbehaving origin from tying up the
// serving path.
func decodeJSON(resp *http.Response, dest any) error {
	return json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(dest)
}
