// Package models содержит доменные структуры приложения: пользователей,
// подписки, лиды, счета и резюме. Структуры используются в бизнес‑логике,
// хранилище и при формировании JSON‑ответов.
package models

import "time"

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID                     string    `json:"id"`
	Username               string    `json:"username"`
	PasswordHash           string    `json:"-"`
	Email                  string    `json:"email,omitempty"`
	EmailVerified          bool      `json:"email_verified"`
	EmailVerificationToken string    `json:"-"`
	TrialActive            bool      `json:"trial_active"`
	CreatedAt              time.Time `json:"created_at"`
}

// Session - результат успешной регистрации или входа.
type Session struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	EmailSent bool   `json:"emailSent"`
}
