package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cvmanager/cvmanager/internal/models"
)

const userColumns = `id, username, password_hash, email, email_verified,
	email_verification_token, trial_active, created_at`

// CreateUser сохраняет нового пользователя. Занятое имя возвращает storage.ErrAlreadyExists.
func (s *Storage) CreateUser(ctx context.Context, u models.User) error {
	const op = "storage.CreateUser"
	if err := insertUser(ctx, s.DB, u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func insertUser(ctx context.Context, q querier, u models.User) error {
	_, err := q.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Username, u.PasswordHash, nullString(u.Email), u.EmailVerified,
		nullString(u.EmailVerificationToken), u.TrialActive, u.CreatedAt)
	return mapError(err)
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUserByID"
	row := s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u            models.User
		email, token sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &email, &u.EmailVerified,
		&token, &u.TrialActive, &u.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	u.Email = email.String
	u.EmailVerificationToken = token.String
	return &u, nil
}

// VerifyEmail подтверждает почту по одноразовому токену и удаляет токен.
func (s *Storage) VerifyEmail(ctx context.Context, token string) error {
	const op = "storage.VerifyEmail"
	res, err := s.DB.ExecContext(ctx, `UPDATE users
		SET email_verified = true, email_verification_token = NULL
		WHERE email_verification_token = $1`, token)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetTrialActive обновляет флаг пробного периода пользователя.
func (s *Storage) SetTrialActive(ctx context.Context, userID string, active bool) error {
	const op = "storage.SetTrialActive"
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET trial_active = $1 WHERE id = $2`, active, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
