package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/storage"
)

const cvSlugConstraint = "cvs_slug_key"

const cvColumns = `id, user_id, name, data, slug, is_public, created_at, updated_at`

// ListCVs возвращает резюме пользователя, последние изменённые первыми.
func (s *Storage) ListCVs(ctx context.Context, userID string) ([]*models.CV, error) {
	const op = "storage.ListCVs"
	rows, err := s.DB.QueryContext(ctx, `SELECT `+cvColumns+`
		FROM cvs WHERE user_id = $1
		ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.CV, 0)
	for rows.Next() {
		cv, err := scanCV(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, cv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CreateCV сохраняет новое резюме. Совпадение slug возвращает storage.ErrSlugTaken,
// совпадение идентификатора - storage.ErrAlreadyExists.
func (s *Storage) CreateCV(ctx context.Context, cv models.CV) error {
	const op = "storage.CreateCV"
	_, err := s.DB.ExecContext(ctx, `INSERT INTO cvs (`+cvColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		cv.ID, cv.UserID, cv.Name, string(cv.Data), cv.Slug, cv.IsPublic, cv.CreatedAt, cv.UpdatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == cvSlugConstraint {
		return fmt.Errorf("%s: %w", op, storage.ErrSlugTaken)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	return nil
}

// UpdateCV обновляет резюме, принадлежащее cv.UserID, и возвращает его slug.
// Чужое или отсутствующее резюме возвращает storage.ErrNotFound.
func (s *Storage) UpdateCV(ctx context.Context, cv models.CV) (string, error) {
	const op = "storage.UpdateCV"
	var slug string
	err := s.DB.QueryRowContext(ctx, `UPDATE cvs
		SET name = $1, data = $2, is_public = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
		RETURNING slug`,
		cv.Name, string(cv.Data), cv.IsPublic, cv.UpdatedAt, cv.ID, cv.UserID).Scan(&slug)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}
	return slug, nil
}

// DeleteCV удаляет резюме пользователя и возвращает его slug.
func (s *Storage) DeleteCV(ctx context.Context, id, userID string) (string, error) {
	const op = "storage.DeleteCV"
	var slug string
	err := s.DB.QueryRowContext(ctx, `DELETE FROM cvs WHERE id = $1 AND user_id = $2 RETURNING slug`,
		id, userID).Scan(&slug)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}
	return slug, nil
}

// GetCVBySlug возвращает резюме по slug.
func (s *Storage) GetCVBySlug(ctx context.Context, slug string) (*models.CV, error) {
	const op = "storage.GetCVBySlug"
	row := s.DB.QueryRowContext(ctx, `SELECT `+cvColumns+` FROM cvs WHERE slug = $1`, slug)
	cv, err := scanCV(row)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return cv, nil
}

func scanCV(row rowScanner) (*models.CV, error) {
	var (
		cv   models.CV
		data []byte
	)
	if err := row.Scan(&cv.ID, &cv.UserID, &cv.Name, &data, &cv.Slug, &cv.IsPublic,
		&cv.CreatedAt, &cv.UpdatedAt); err != nil {
		return nil, err
	}
	cv.Data = data
	return &cv, nil
}
