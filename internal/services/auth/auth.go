// Package auth отвечает за регистрацию, вход и подтверждение почты.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cvmanager/cvmanager/internal/lib/password"
	"github.com/cvmanager/cvmanager/internal/lib/sl"
	"github.com/cvmanager/cvmanager/internal/lib/slug"
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/storage"
)

var (
	// ErrUserExists - имя пользователя уже занято.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials - неизвестный пользователь или неверный пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidVerificationToken - токен подтверждения почты не найден или уже использован.
	ErrInvalidVerificationToken = errors.New("invalid verification token")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// CreateUser сохраняет пользователя или возвращает storage.ErrAlreadyExists.
	CreateUser(ctx context.Context, user models.User) error
	// GetUserByUsername возвращает пользователя или storage.ErrNotFound.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// VerifyEmail подтверждает почту или возвращает storage.ErrNotFound.
	VerifyEmail(ctx context.Context, token string) error
}

// TokenIssuer выпускает токены сессии.
type TokenIssuer interface {
	Issue(userID, username string, nowMillis int64) (string, error)
}

// Notifier публикует уведомления для отправки писем.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

// Service реализует бизнес-логику аутентификации.
type Service struct {
	users    UserRepository
	tokens   TokenIssuer
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// New создает новый экземпляр Service.
func New(users UserRepository, tokens TokenIssuer, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Register создаёт пользователя и сразу открывает сессию. Если указана почта,
// публикуется письмо с токеном подтверждения; сбой публикации не отменяет регистрацию.
func (s *Service) Register(ctx context.Context, username, rawPassword, email string) (*models.Session, error) {
	const op = "auth.Register"

	hashed, err := password.Hash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	email = strings.TrimSpace(email)
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hashed,
		Email:        email,
		CreatedAt:    s.now().UTC(),
	}
	if email != "" {
		if user.EmailVerificationToken, err = slug.NewToken(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.session(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if email != "" {
		err := s.notifier.Notify(ctx, models.Notification{
			Kind:     models.NotifyVerification,
			UserID:   user.ID,
			Username: user.Username,
			Email:    email,
			Token:    user.EmailVerificationToken,
		})
		if err != nil {
			s.log.Error("failed to publish verification email", sl.Op(op), sl.Err(err),
				slog.String("user_id", user.ID))
		} else {
			session.EmailSent = true
		}
	}
	return session, nil
}

// Login проверяет пароль пользователя и выпускает токен сессии.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (*models.Session, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.Compare(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.session(*user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// VerifyEmail подтверждает почту по токену из письма.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	const op = "auth.VerifyEmail"
	if token == "" {
		return ErrInvalidVerificationToken
	}
	if err := s.users.VerifyEmail(ctx, token); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrInvalidVerificationToken
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) session(u models.User) (*models.Session, error) {
	token, err := s.tokens.Issue(u.ID, u.Username, s.now().UnixMilli())
	if err != nil {
		return nil, err
	}
	return &models.Session{Token: token, UserID: u.ID, Username: u.Username}, nil
}
