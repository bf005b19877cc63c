// Package services implements the graph read/write APIs and the query
// orchestrator on top of the repository ports.
package services

import (
	"context"

	"scholarmap-backend/pkg/auth"
	"scholarmap-backend/pkg/errors"
)

// requirePrincipal returns the authenticated caller or Unauthenticated
func requirePrincipal(ctx context.Context) (*auth.Principal, error) {
	principal, err := auth.PrincipalFromContext(ctx)
	if err != nil {
		return nil, errors.NewUnauthenticatedError("")
	}
	return principal, nil
}
