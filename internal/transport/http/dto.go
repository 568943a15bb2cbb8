package http

import (
	"time"

	"github.com/moodsync/server/internal/domain"
)

type RegisterRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	MobileNumber     string `json:"mobileNumber"`
	EmergencyContact string `json:"emergencyContact"`
	Password         string `json:"password"`
	ConfirmPassword  string `json:"confirmPassword"`
	Role             string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
	User         *User  `json:"user,omitempty"`
}

type User struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	MobileNumber     string     `json:"mobileNumber"`
	EmergencyContact string     `json:"emergencyContact"`
	Role             string     `json:"role"`
	EmailVerified    bool       `json:"emailVerified"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func toUser(u *domain.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:               int64(u.ID),
		Name:             u.Name,
		Email:            u.Email,
		MobileNumber:     u.MobileNumber,
		EmergencyContact: u.EmergencyContact,
		Role:             string(u.Role),
		EmailVerified:    u.EmailVerified,
		LastLogin:        u.LastLogin,
		CreatedAt:        u.CreatedAt,
	}
}

type Professional struct {
	ID                     string    `json:"id"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	Phone                  string    `json:"phone"`
	Hospital               string    `json:"hospital"`
	Specialty              string    `json:"specialty"`
	Specializations        []string  `json:"specializations"`
	Languages              []string  `json:"languages"`
	Education              string    `json:"education"`
	LicenseNumber          string    `json:"licenseNumber"`
	AvailableHours         string    `json:"availableHours"`
	Active                 bool      `json:"active"`
	Verified               bool      `json:"verified"`
	JoinDate               string    `json:"joinDate"`
	AvailabilityStatus     string    `json:"availabilityStatus"`
	CurrentAssignments     []string  `json:"currentAssignments"`
	NextAvailableSlot      *string   `json:"nextAvailableSlot"`
	ProfileImagePath       string    `json:"profileImagePath"`
	LicenseCertificatePath string    `json:"licenseCertificatePath"`
	CreatedAt              time.Time `json:"createdAt"`
}

func toProfessional(p *domain.Professional) Professional {
	return Professional{
		ID:                     p.ID.String(),
		Name:                   p.Name,
		Email:                  p.Email,
		Phone:                  p.Phone,
		Hospital:               p.Hospital,
		Specialty:              p.Specialty,
		Specializations:        p.Specializations,
		Languages:              p.Languages,
		Education:              p.Education,
		LicenseNumber:          p.LicenseNumber,
		AvailableHours:         p.AvailableHours,
		Active:                 p.Active,
		Verified:               p.Verified,
		JoinDate:               p.JoinDate,
		AvailabilityStatus:     p.AvailabilityStatus,
		CurrentAssignments:     p.CurrentAssignments,
		NextAvailableSlot:      p.NextAvailableSlot,
		ProfileImagePath:       p.ProfileImagePath,
		LicenseCertificatePath: p.LicenseCertificatePath,
		CreatedAt:              p.CreatedAt,
	}
}

type PredictRequest struct {
	Statement string `json:"statement"`
}
