package queries

const userColumns = `
	id, name, email, mobile_number, emergency_contact, password_hash, role, email_verified,
	email_verification_token, password_reset_hash, password_reset_expires,
	failed_login_attempts, lock_until, last_login, created_at, updated_at`

const (
	QueryCreateUser = `
		INSERT INTO users (
			name, email, mobile_number, emergency_contact, password_hash, role,
			email_verified, email_verification_token, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id;
	`
	QueryGetUserByID = `SELECT` + userColumns + `
		FROM users
		WHERE id = $1;
	`
	QueryGetUserByEmail = `SELECT` + userColumns + `
		FROM users
		WHERE email = $1;
	`
	QueryGetUserByResetHash = `SELECT` + userColumns + `
		FROM users
		WHERE password_reset_hash = $1 AND password_reset_expires > $2;
	`
	QueryGetUserByVerificationToken = `SELECT` + userColumns + `
		FROM users
		WHERE email_verification_token = $1;
	`
	QueryExistsUserByEmail = `SELECT 1 FROM users WHERE email = $1;`
	QueryUpdateLoginState  = `
		UPDATE users
		SET failed_login_attempts = $2, lock_until = $3, last_login = $4, updated_at = $5
		WHERE id = $1;
	`
	QueryUpdatePassword = `
		UPDATE users
		SET password_hash = $2,
		    password_reset_hash = NULL, password_reset_expires = NULL,
		    failed_login_attempts = 0, lock_until = NULL,
		    updated_at = $3
		WHERE id = $1;
	`
	QuerySetPasswordReset = `
		UPDATE users
		SET password_reset_hash = $2, password_reset_expires = $3, updated_at = $4
		WHERE id = $1;
	`
	QueryUpdateEmailVerified = `
		UPDATE users
		SET email_verified = TRUE, email_verification_token = NULL, updated_at = $2
		WHERE id = $1;
	`
)
