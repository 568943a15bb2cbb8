package queries

const refreshSessionColumns = `
	id, user_id, token_hash, expires_at, created_at, updated_at, user_agent, host(ip)`

const (
	QueryInsertRefreshSession = `
		INSERT INTO auth_sessions (user_id, token_hash, expires_at, created_at, updated_at, user_agent, ip)
		VALUES ($1, $2, $3, $4, $5, $6, $7::inet)
		RETURNING id;
	`
	// The insert only happens when the delete matched a row.
	QueryRotateRefreshSession = `
		WITH spent AS (
			DELETE FROM auth_sessions WHERE id = $1 RETURNING user_id
		)
		INSERT INTO auth_sessions (user_id, token_hash, expires_at, created_at, updated_at, user_agent, ip)
		SELECT $2, $3, $4, $5, $6, $7, $8::inet FROM spent WHERE spent.user_id = $2
		RETURNING id;
	`
	QuerySelectRefreshSession = `SELECT` + refreshSessionColumns + `
		FROM auth_sessions
		WHERE token_hash = $1;
	`
	QueryDeleteRefreshSession       = `DELETE FROM auth_sessions WHERE id = $1;`
	QueryDeleteUserRefreshSessions  = `DELETE FROM auth_sessions WHERE user_id = $1;`
	QueryPurgeExpiredRefreshSession = `DELETE FROM auth_sessions WHERE expires_at <= $1;`
)
