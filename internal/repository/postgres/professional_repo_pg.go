package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/repository/queries"
)

type ProfessionalRepo struct {
	q querier
}

func NewProfessionalRepoFromPool(q querier) *ProfessionalRepo {
	return &ProfessionalRepo{q: q}
}

func (r *ProfessionalRepo) Create(ctx context.Context, p *domain.Professional) error {
	var createdBy any
	if p.CreatedBy != 0 {
		createdBy = int64(p.CreatedBy)
	}
	_, err := r.q.Exec(
		ctx,
		queries.QueryCreateProfessional,
		p.ID,
		p.Name,
		p.Email,
		p.Phone,
		p.Hospital,
		p.Specialty,
		p.Specializations,
		p.Languages,
		p.Education,
		p.LicenseNumber,
		p.AvailableHours,
		p.Active,
		p.Verified,
		p.JoinDate,
		p.AvailabilityStatus,
		p.CurrentAssignments,
		p.NextAvailableSlot,
		p.ProfileImagePath,
		p.LicenseCertificatePath,
		p.CreatedAt,
		createdBy,
	)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *ProfessionalRepo) List(ctx context.Context) ([]domain.Professional, error) {
	rows, err := r.q.Query(ctx, queries.QueryListProfessionals)
	if err != nil {
		return nil, mapPgError(err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Professional, error) {
		var (
			p         domain.Professional
			createdBy int64
		)
		err := row.Scan(
			&p.ID,
			&p.Name,
			&p.Email,
			&p.Phone,
			&p.Hospital,
			&p.Specialty,
			&p.Specializations,
			&p.Languages,
			&p.Education,
			&p.LicenseNumber,
			&p.AvailableHours,
			&p.Active,
			&p.Verified,
			&p.JoinDate,
			&p.AvailabilityStatus,
			&p.CurrentAssignments,
			&p.NextAvailableSlot,
			&p.ProfileImagePath,
			&p.LicenseCertificatePath,
			&p.CreatedAt,
			&createdBy,
		)
		p.CreatedBy = domain.UserID(createdBy)
		return p, err
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	return out, nil
}
