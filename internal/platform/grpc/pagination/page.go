// Package pagination normalizes page size, ordering and offset tokens for
// list RPCs.
package pagination

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// OrderByConfig configures order_by validation.
type OrderByConfig struct {
	Default string
	Allowed []string
}

// ClampPageSize applies defaults and limits for page sizes.
func ClampPageSize(value int, cfg PageSizeConfig) int {
	pageSize := value
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

// NormalizeOrderBy validates order_by and applies defaults. Matching ignores
// case and surrounding space.
func NormalizeOrderBy(orderBy string, cfg OrderByConfig) (string, error) {
	orderBy = strings.ToLower(strings.TrimSpace(orderBy))
	if orderBy == "" {
		return cfg.Default, nil
	}
	if slices.Contains(cfg.Allowed, orderBy) {
		return orderBy, nil
	}
	return "", fmt.Errorf("invalid order_by: %s", orderBy)
}

// Window returns the bounds of the page starting at the offset encoded in
// token, and the token of the following page ("" on the last page).
func Window(total int, token string, pageSize int) (start, end int, next string, err error) {
	if token = strings.TrimSpace(token); token != "" {
		start, err = strconv.Atoi(token)
		if err != nil || start < 0 {
			return 0, 0, "", fmt.Errorf("invalid page_token: %q", token)
		}
	}
	start = min(start, total)
	end = min(start+max(pageSize, 1), total)
	if end < total {
		next = strconv.Itoa(end)
	}
	return start, end, next, nil
}
