package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kharchabook/internal/models"
)

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *models.User
	Token        string
	LastActivity time.Time
	ExpiresAt    time.Time
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// CreateSession creates a new session for a user.
func (db *DB) CreateSession(token string, userID int64, expiresAt time.Time) error {
	_, err := db.conn.Exec(
		"INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)",
		token, userID, formatTime(expiresAt), formatTime(db.now()),
	)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	db.log.Debug().Int64("user_id", userID).Time("expires_at", expiresAt).Msg("session created")
	return nil
}

// ValidateSession checks if a session token is valid and returns the associated user.
func (db *DB) ValidateSession(token string) (*models.User, error) {
	info, err := db.ValidateSessionWithInfo(token)
	if err != nil {
		return nil, err
	}
	return info.User, nil
}

// ValidateSessionWithInfo checks if a session token is valid and returns session details.
// Unknown and expired tokens both yield ErrSessionNotFound.
func (db *DB) ValidateSessionWithInfo(token string) (*SessionInfo, error) {
	row := db.conn.QueryRow(`
		SELECT u.id, u.username, u.password_hash, u.email, u.created_at, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?
	`, token, formatTime(db.now()))

	var (
		u                       models.User
		lastActivity, expiresAt string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.CreatedAt, &lastActivity, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("validate session: %w", err)
	}

	info := &SessionInfo{User: &u, Token: token}
	if info.LastActivity, err = time.Parse(time.RFC3339, lastActivity); err != nil {
		return nil, fmt.Errorf("parse last_activity: %w", err)
	}
	if info.ExpiresAt, err = time.Parse(time.RFC3339, expiresAt); err != nil {
		return nil, fmt.Errorf("parse expires_at: %w", err)
	}
	return info, nil
}

// RenewSession updates the last_activity and expires_at for a session.
func (db *DB) RenewSession(token string, newExpiresAt time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		formatTime(db.now()), formatTime(newExpiresAt), token,
	)
	return err
}

// DeleteSession removes a session by token.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// CleanExpiredSessions removes all expired sessions and returns how many were removed.
func (db *DB) CleanExpiredSessions() (int64, error) {
	result, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= ?", formatTime(db.now()))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
