package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/errs"
	"github.com/moodsync/server/internal/repository"
)

const (
	ProfileImagesDir       = "profile_images"
	LicenseCertificatesDir = "license_certificates"
)

// FileStore is implemented by storage.Local.
type FileStore interface {
	Save(ctx context.Context, dir, originalName string, r io.Reader) (string, error)
	Remove(ctx context.Context, rel string)
}

// Upload is one multipart file handed over by the transport.
type Upload struct {
	Filename string
	Body     io.Reader
}

type ProfessionalService struct {
	repo  repository.ProfessionalRepository
	files FileStore
	now   func() time.Time
}

func NewProfessionalService(repo repository.ProfessionalRepository, files FileStore, now func() time.Time) *ProfessionalService {
	if now == nil {
		now = time.Now
	}
	return &ProfessionalService{repo: repo, files: files, now: now}
}

// Create validates p, stores both documents and inserts the record.
// Stored files are removed again when anything after the upload fails.
func (s *ProfessionalService) Create(ctx context.Context, p *domain.Professional, profileImage, license *Upload) (*domain.Professional, error) {
	if err := p.Validate(s.now()); err != nil {
		return nil, err
	}
	if profileImage == nil || profileImage.Body == nil {
		return nil, &domain.FieldError{Field: "profileImage", Err: errs.ErrInvalidInput}
	}
	if license == nil || license.Body == nil {
		return nil, &domain.FieldError{Field: "licenseCertificate", Err: errs.ErrInvalidInput}
	}

	imgPath, err := s.files.Save(ctx, ProfileImagesDir, profileImage.Filename, profileImage.Body)
	if err != nil {
		return nil, fmt.Errorf("save profile image: %w", err)
	}
	certPath, err := s.files.Save(ctx, LicenseCertificatesDir, license.Filename, license.Body)
	if err != nil {
		s.files.Remove(ctx, imgPath)
		return nil, fmt.Errorf("save license certificate: %w", err)
	}
	p.ProfileImagePath = imgPath
	p.LicenseCertificatePath = certPath

	if err := s.repo.Create(ctx, p); err != nil {
		s.files.Remove(ctx, imgPath)
		s.files.Remove(ctx, certPath)
		slog.ErrorContext(ctx, "professional.create failed", slog.Any("err", err))
		return nil, err
	}

	slog.InfoContext(ctx, "professional created", slog.String("id", p.ID.String()), slog.Int64("by", int64(p.CreatedBy)))
	return p, nil
}

func (s *ProfessionalService) List(ctx context.Context) ([]domain.Professional, error) {
	return s.repo.List(ctx)
}
