package chart

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gosuda/seatmap/internal/domain"
)

const (
	itemKeyPrefix   = "chart:"
	listKeyPrefix   = "chart-list:"
	allScope        = "all"
	deptScopePrefix = "d." // keeps a department named "all" apart from allScope
)

// ItemKey returns the cache key of a single chart.
func ItemKey(id uuid.UUID) string {
	return itemKeyPrefix + id.String()
}

// ListKey returns the cache key of one filtered page. The active filter is
// the last segment so department sweeps still match by prefix.
func ListKey(f domain.ChartFilter) string {
	return listKeyPrefix + scope(f.Department) + ":" +
		strconv.Itoa(f.Page) + ":" + strconv.Itoa(f.Limit) + ":" + activeSegment(f.Active)
}

// ListPattern matches every cached page of a department ("" for the
// all-departments listing).
func ListPattern(department string) string {
	return listKeyPrefix + escapeGlob(scope(department)) + ":*"
}

func scope(department string) string {
	if department == "" {
		return allScope
	}
	return deptScopePrefix + department
}

func activeSegment(active *bool) string {
	switch {
	case active == nil:
		return "any"
	case *active:
		return "active"
	default:
		return "inactive"
	}
}

var globEscaper = strings.NewReplacer( //nolint:gochecknoglobals // immutable replacer
	`\`, `\\`,
	`*`, `\*`,
	`?`, `\?`,
	`[`, `\[`,
	`]`, `\]`,
)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

// PurgePatterns returns the patterns that drop cached pages. With a
// department only its pages and the all-departments listing go; without one
// every list page goes. items adds every cached chart.
func PurgePatterns(department string, items bool) []string {
	var patterns []string
	if department == "" {
		patterns = append(patterns, listKeyPrefix+"*")
	} else {
		patterns = append(patterns, ListPattern(department), ListPattern(""))
	}
	if items {
		patterns = append(patterns, itemKeyPrefix+"*")
	}
	return patterns
}
