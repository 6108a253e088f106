// Package validation holds input validation helpers for catalog requests.
package validation

import (
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// ParseGameVersions splits a comma-separated game version list and keeps only
// the segments that parse as semantic-style version strings ("1.8", "1.20.4").
// Unparseable segments are dropped rather than rejected; the tested-versions
// match simply cannot hit them. Order is preserved and duplicates removed.
func ParseGameVersions(raw string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, seg := range strings.Split(raw, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" || seen[seg] {
			continue
		}
		if _, err := goversion.NewVersion(seg); err != nil {
			continue
		}
		seen[seg] = true
		out = append(out, seg)
	}
	return out
}
