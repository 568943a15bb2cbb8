package repository

import (
	"context"

	"github.com/moodsync/server/internal/domain"
)

type ProfessionalRepository interface {
	Create(ctx context.Context, p *domain.Professional) error
	// List returns professionals newest first.
	List(ctx context.Context) ([]domain.Professional, error)
}
