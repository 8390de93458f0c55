package service

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// LookupService exposes the read-only reference tables.
type LookupService struct {
	lookups repository.LookupRepository
}

// NewLookupService constructs the service.
func NewLookupService(lookups repository.LookupRepository) *LookupService {
	return &LookupService{lookups: lookups}
}

func (s *LookupService) ListPriorities(ctx context.Context) ([]domain.Lookup, error) {
	return s.lookups.List(ctx, domain.LookupPriorities)
}

func (s *LookupService) ListStatuses(ctx context.Context) ([]domain.Lookup, error) {
	return s.lookups.List(ctx, domain.LookupStatuses)
}

func (s *LookupService) ListTicketTypes(ctx context.Context) ([]domain.Lookup, error) {
	return s.lookups.List(ctx, domain.LookupTicketTypes)
}

func (s *LookupService) ListInstalledEnvironments(ctx context.Context) ([]domain.Lookup, error) {
	return s.lookups.List(ctx, domain.LookupInstalledEnvironments)
}
