package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"kharchabook/internal/auth"
	"kharchabook/internal/models"
)

// RegisterUser creates an account with a hashed password.
// It returns false with a nil error when the username is already taken.
func (db *DB) RegisterUser(username, password, email string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, invalid("username", "", ErrRequired)
	}
	if password == "" {
		return false, invalid("password", "", ErrRequired)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	user, err := db.CreateUser(username, hash, strings.TrimSpace(email))
	if errors.Is(err, ErrUsernameTaken) {
		db.log.Debug().Str("username", username).Msg("registration rejected: username taken")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create user: %w", err)
	}

	db.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return true, nil
}

// LoginUser checks credentials and returns the user id. ok is false when they do not match.
func (db *DB) LoginUser(username, password string) (id int64, ok bool, err error) {
	user, err := db.GetUserByUsername(strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get user: %w", err)
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return 0, false, nil
	}
	return user.ID, true, nil
}

// ResetPassword replaces the password of an existing user. It returns false when the username is unknown.
func (db *DB) ResetPassword(username, newPassword string) (bool, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return false, invalid("username", "", ErrRequired)
	}
	if newPassword == "" {
		return false, invalid("password", "", ErrRequired)
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	result, err := db.conn.Exec("UPDATE users SET password_hash = ? WHERE username = ?", hash, username)
	if err != nil {
		return false, fmt.Errorf("update password: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if n > 0 {
		db.log.Info().Str("username", username).Msg("password reset")
	}
	return n > 0, nil
}

// CreateUser creates a new user with the given username and password hash.
func (db *DB) CreateUser(username, passwordHash, email string) (*models.User, error) {
	result, err := db.conn.Exec(
		"INSERT INTO users (username, password_hash, email) VALUES (?, ?, ?)",
		username, passwordHash, email,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id int64) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, password_hash, email, created_at FROM users WHERE id = ?",
		id,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by username.
func (db *DB) GetUserByUsername(username string) (*models.User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, password_hash, email, created_at FROM users WHERE username = ?",
		username,
	)

	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
