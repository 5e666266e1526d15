// Package cv управляет резюме пользователей и их публичными страницами.
package cv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/lib/slug"
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/storage"
)

// PublicCacheTTL - время жизни публичного резюме в кеше.
const PublicCacheTTL = 5 * time.Minute

const slugAttempts = 3

var (
	// ErrNotFound - резюме не найдено или принадлежит другому пользователю.
	ErrNotFound = errors.New("cv not found")
	// ErrIDTaken - резюме с таким идентификатором уже существует.
	ErrIDTaken = errors.New("cv id already taken")
	// ErrInvalidData - поле data не является JSON-объектом.
	ErrInvalidData = errors.New("cv data must be a JSON object")
)

// Repository описывает хранилище резюме.
type Repository interface {
	ListCVs(ctx context.Context, userID string) ([]*models.CV, error)
	CreateCV(ctx context.Context, cv models.CV) error
	UpdateCV(ctx context.Context, cv models.CV) (string, error)
	DeleteCV(ctx context.Context, id, userID string) (string, error)
	GetCVBySlug(ctx context.Context, slug string) (*models.CV, error)
}

// Cache хранит публичные резюме.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Service реализует операции с резюме.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
	now   func() time.Time
}

// New создаёт Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log, now: time.Now}
}

// Input - изменяемые поля резюме.
type Input struct {
	ID       string
	Name     string
	Data     json.RawMessage
	IsPublic bool
}

// List возвращает резюме пользователя.
func (s *Service) List(ctx context.Context, userID string) ([]*models.CV, error) {
	const op = "cv.List"
	cvs, err := s.repo.ListCVs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cvs, nil
}

// Create сохраняет новое закрытое резюме со случайным slug.
// Идентификатор из запроса сохраняется как есть, без него генерируется UUID.
func (s *Service) Create(ctx context.Context, userID string, in Input) (*models.CV, error) {
	const op = "cv.Create"

	data, err := normalizeData(in.Data)
	if err != nil {
		return nil, err
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now().UTC()
	cv := models.CV{
		ID:        id,
		UserID:    userID,
		Name:      in.Name,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 1; ; attempt++ {
		if cv.Slug, err = slug.New(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		err = s.repo.CreateCV(ctx, cv)
		if err == nil {
			return &cv, nil
		}
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrIDTaken
		}
		if !errors.Is(err, storage.ErrSlugTaken) || attempt == slugAttempts {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
}

// Update изменяет резюме пользователя и сбрасывает кеш его публичной страницы.
func (s *Service) Update(ctx context.Context, userID string, in Input) error {
	const op = "cv.Update"

	data, err := normalizeData(in.Data)
	if err != nil {
		return err
	}
	slugValue, err := s.repo.UpdateCV(ctx, models.CV{
		ID:        in.ID,
		UserID:    userID,
		Name:      in.Name,
		Data:      data,
		IsPublic:  in.IsPublic,
		UpdatedAt: s.now().UTC(),
	})
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, slugValue)
	return nil
}

// Delete удаляет резюме пользователя.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	const op = "cv.Delete"
	slugValue, err := s.repo.DeleteCV(ctx, id, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, slugValue)
	return nil
}

// BySlug возвращает резюме по slug без учёта видимости.
func (s *Service) BySlug(ctx context.Context, slugValue string) (*models.CV, error) {
	const op = "cv.BySlug"
	cv, err := s.repo.GetCVBySlug(ctx, slugValue)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cv, nil
}

// Public возвращает опубликованное резюме. Найденные резюме кешируются на PublicCacheTTL.
func (s *Service) Public(ctx context.Context, slugValue string) (*models.CV, error) {
	const op = "cv.Public"
	log := s.log.With(sl.Op(op), slog.String("slug", slugValue))
	key := publicKey(slugValue)

	var cached models.CV
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn("cache read failed", sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	cv, err := s.BySlug(ctx, slugValue)
	if err != nil {
		return nil, err
	}
	if !cv.IsPublic {
		return nil, ErrNotFound
	}
	if err := s.cache.Set(ctx, key, cv, PublicCacheTTL); err != nil {
		log.Warn("cache write failed", sl.Err(err))
	}
	return cv, nil
}

func (s *Service) invalidate(ctx context.Context, slugValue string) {
	if slugValue == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, publicKey(slugValue)); err != nil {
		s.log.Warn("cache invalidation failed", sl.Err(err), slog.String("slug", slugValue))
	}
}

func publicKey(slugValue string) string {
	return "cv:public:" + slugValue
}

func normalizeData(data json.RawMessage) (json.RawMessage, error) {
	if len(data) == 0 || string(data) == "null" {
		return json.RawMessage(`{}`), nil
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, ErrInvalidData
	}
	return data, nil
}
