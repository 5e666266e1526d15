// Package password хеширует и проверяет пароли пользователей с помощью bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// MaxBytes - предел длины пароля в байтах, больше bcrypt не принимает.
const MaxBytes = 72

var (
	// ErrMismatch возвращается, когда пароль не соответствует сохранённому хешу.
	ErrMismatch = errors.New("password does not match")
	// ErrTooLong возвращается для пароля длиннее MaxBytes байт.
	ErrTooLong = errors.New("password exceeds 72 bytes")
)

// Hash возвращает bcrypt-хеш пароля для хранения в базе данных.
func Hash(plain string) (string, error) {
	const op = "password.Hash"
	if len(plain) > MaxBytes {
		return "", fmt.Errorf("%s: %w", op, ErrTooLong)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}

// Compare сравнивает сохранённый хеш с введённым паролем.
// Для неверного пароля возвращает ErrMismatch.
func Compare(hash, plain string) error {
	const op = "password.Compare"
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
