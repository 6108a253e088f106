// Package query implements the shared list-endpoint machinery: pagination and
// sort parsing, response field projection, and identifier resolution for the
// latest / numeric-id / token path segments.
//
// Parsing is deliberately forgiving. Malformed page or size values fall back
// to defaults, unknown sort fields fall back to the endpoint's default order,
// and unknown projection fields are dropped silently. List endpoints never
// reject a request over its paging parameters.
package query

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Options configures ParseSpec for one endpoint.
type Options struct {
	DefaultSize int
	MaxSize     int
	// SortFields maps wire field names to SQL columns. Only listed fields are
	// sortable.
	SortFields map[string]string
	// DefaultSort is the ORDER BY clause used when no valid sort is requested.
	DefaultSort string
	// Fields is the projection whitelist of wire field names.
	Fields []string
}

// Spec is a parsed list request.
type Spec struct {
	Page   int
	Size   int
	Sort   string // full ORDER BY expression, e.g. "downloads DESC"
	Fields []string
}

// ParseSpec reads page, size, sort and fields query parameters from the
// request. It never fails; invalid input degrades to defaults.
func ParseSpec(c *gin.Context, opts Options) Spec {
	spec := Spec{
		Page: 1,
		Size: opts.DefaultSize,
		Sort: opts.DefaultSort,
	}

	if page, err := strconv.Atoi(c.Query("page")); err == nil && page > 0 {
		spec.Page = page
	}
	if size, err := strconv.Atoi(c.Query("size")); err == nil && size > 0 {
		spec.Size = size
	}
	if opts.MaxSize > 0 && spec.Size > opts.MaxSize {
		spec.Size = opts.MaxSize
	}

	if sort := c.Query("sort"); sort != "" {
		dir := "ASC"
		field := sort
		if strings.HasPrefix(sort, "-") {
			dir = "DESC"
			field = sort[1:]
		} else if strings.HasPrefix(sort, "+") {
			field = sort[1:]
		}
		if col, ok := opts.SortFields[field]; ok {
			spec.Sort = col + " " + dir
		}
	}

	if raw := c.Query("fields"); raw != "" {
		allowed := make(map[string]bool, len(opts.Fields))
		for _, f := range opts.Fields {
			allowed[f] = true
		}
		for _, f := range strings.Split(raw, ",") {
			f = strings.TrimSpace(f)
			if allowed[f] {
				spec.Fields = append(spec.Fields, f)
			}
		}
	}

	return spec
}

// Offset returns the SQL OFFSET for the requested page.
func (s Spec) Offset() int {
	return (s.Page - 1) * s.Size
}

// WritePage writes a paginated list response: paging metadata in headers, the
// items as a bare JSON array in the body. Nil item slices are written as [].
func WritePage(c *gin.Context, spec Spec, total int, items []map[string]any) {
	pages := 0
	if spec.Size > 0 {
		pages = (total + spec.Size - 1) / spec.Size
	}

	c.Header("X-Page-Index", strconv.Itoa(spec.Page))
	c.Header("X-Page-Size", strconv.Itoa(spec.Size))
	c.Header("X-Page-Count", strconv.Itoa(pages))
	c.Header("X-Total-Count", strconv.Itoa(total))

	if items == nil {
		items = []map[string]any{}
	}
	c.JSON(200, items)
}
