package queries

const (
	QueryCreateProfessional = `
		INSERT INTO professionals (
			id, name, email, phone, hospital, specialty, specializations, languages,
			education, license_number, available_hours, active, verified, join_date,
			availability_status, current_assignments, next_available_slot,
			profile_image_path, license_certificate_path, created_at, created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21
		);
	`
	QueryListProfessionals = `
		SELECT
			id, name, email, phone, hospital, specialty, specializations, languages,
			education, license_number, available_hours, active, verified, join_date,
			availability_status, current_assignments, next_available_slot,
			profile_image_path, license_certificate_path, created_at, COALESCE(created_by, 0)
		FROM professionals
		ORDER BY created_at DESC;
	`
)
