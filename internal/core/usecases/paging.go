package usecases

import "github.com/samirrijal/orgdirectory/internal/core/domain"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return offset, limit
}

// DepthPolicy bounds how many activity levels are rendered.
type DepthPolicy struct {
	Default int
	Max     int
}

// Resolve returns the effective depth for a request. Zero or negative
// requests use the default; the result is clamped to [1, Max].
func (p DepthPolicy) Resolve(requested int) int {
	d := requested
	if d <= 0 {
		d = p.Default
	}
	if d <= 0 {
		d = domain.DefaultActivityDepth
	}
	if p.Max > 0 && d > p.Max {
		d = p.Max
	}
	return d
}
