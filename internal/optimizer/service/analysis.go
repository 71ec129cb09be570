package service

import "github.com/dockopt/dockopt-backend/internal/optimizer/domain"

// lintDockerfile evaluates no rules yet; callers always get an empty, non-nil list.
func lintDockerfile(_ string) []domain.LintResult {
	return []domain.LintResult{}
}

// TODO: profile layers through a BuildKit build once a builder endpoint is configurable.
func profileLayers(_ string) []domain.LayerEntry {
	return []domain.LayerEntry{}
}
