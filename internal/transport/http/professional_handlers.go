package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/moodsync/server/internal/domain"
	"github.com/moodsync/server/internal/service"
	httpmw "github.com/moodsync/server/internal/transport/http/middleware"
	"github.com/moodsync/server/pkg/httputil"
)

const multipartMemory = 8 << 20

// ProfessionalAPI is implemented by *service.ProfessionalService.
type ProfessionalAPI interface {
	Create(ctx context.Context, p *domain.Professional, profileImage, license *service.Upload) (*domain.Professional, error)
	List(ctx context.Context) ([]domain.Professional, error)
}

type ProfessionalHandlers struct {
	Professionals ProfessionalAPI
	// MaxUploadBytes caps the whole multipart body.
	MaxUploadBytes int64
}

// POST /api/professionals (multipart/form-data)
func (h *ProfessionalHandlers) Create(w http.ResponseWriter, r *http.Request) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.Error(r.Context(), w, http.StatusRequestEntityTooLarge, "upload too large", nil)
			return
		}
		httputil.Error(r.Context(), w, http.StatusBadRequest, "invalid multipart form", map[string]any{"reason": err.Error()})
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	p, field, err := professionalFromForm(r)
	if err != nil {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "invalid field", map[string]any{"field": field, "reason": err.Error()})
		return
	}
	if id, ok := httpmw.IdentityFromCtx(r.Context()); ok {
		p.CreatedBy = id.UserID
	}

	img, imgClose, err := formFile(r, "profileImage")
	if err != nil {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "profileImage is required", nil)
		return
	}
	defer imgClose()
	cert, certClose, err := formFile(r, "licenseCertificate")
	if err != nil {
		httputil.Error(r.Context(), w, http.StatusBadRequest, "licenseCertificate is required", nil)
		return
	}
	defer certClose()

	created, err := h.Professionals.Create(r.Context(), p, img, cert)
	if err != nil {
		writeError(w, r, "create professional failed", err)
		return
	}

	httputil.Created(w, toProfessional(created))
}

// GET /api/professionals
func (h *ProfessionalHandlers) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Professionals.List(r.Context())
	if err != nil {
		writeError(w, r, "list professionals failed", err)
		return
	}
	out := make([]Professional, 0, len(list))
	for i := range list {
		out = append(out, toProfessional(&list[i]))
	}

	httputil.OK(w, out)
}

func professionalFromForm(r *http.Request) (*domain.Professional, string, error) {
	v := func(k string) string { return strings.TrimSpace(r.FormValue(k)) }

	p := &domain.Professional{
		Name:               v("name"),
		Email:              v("email"),
		Phone:              v("phone"),
		Hospital:           v("hospital"),
		Specialty:          v("specialty"),
		Education:          v("education"),
		LicenseNumber:      v("licenseNumber"),
		AvailableHours:     v("availableHours"),
		JoinDate:           v("joinDate"),
		AvailabilityStatus: v("availabilityStatus"),
		Active:             true,
	}
	if s := v("nextAvailableSlot"); s != "" {
		p.NextAvailableSlot = &s
	}

	lists := []struct {
		field    string
		dst      *[]string
		required bool
	}{
		{"specializations", &p.Specializations, true},
		{"languages", &p.Languages, true},
		{"currentAssignments", &p.CurrentAssignments, false},
	}
	for _, l := range lists {
		raw := v(l.field)
		if raw == "" {
			if l.required {
				return nil, l.field, errors.New("required JSON array")
			}
			continue
		}
		if err := json.Unmarshal([]byte(raw), l.dst); err != nil {
			return nil, l.field, errors.New("must be a JSON array of strings")
		}
	}

	bools := []struct {
		field string
		dst   *bool
	}{
		{"active", &p.Active},
		{"verified", &p.Verified},
	}
	for _, b := range bools {
		raw := v(b.field)
		if raw == "" {
			continue
		}
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, b.field, errors.New("must be true or false")
		}
		*b.dst = parsed
	}

	return p, "", nil
}

func formFile(r *http.Request, field string) (*service.Upload, func(), error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, nil, err
	}
	return &service.Upload{Filename: hdr.Filename, Body: f}, func() { _ = f.Close() }, nil
}
