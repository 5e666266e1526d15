// Package sessiontoken выпускает и проверяет bearer-токены сессии.
//
// Токен несёт тройку (userID, username, issuedAtMillis) и подписан HMAC-SHA256,
// поэтому клиент не может выпустить токен для произвольного пользователя.
// Серверного хранилища сессий нет. Срок жизни проверяется, только если задан TTL.
//
// Некорректный ввод никогда не приводит к панике: Authenticate возвращает false,
// ExtractUserID - пустую строку и false.
package sessiontoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// BearerPrefix - обязательный префикс заголовка Authorization.
const BearerPrefix = "Bearer "

var (
	// ErrMissingBearer - заголовок пуст или не начинается с BearerPrefix.
	ErrMissingBearer = errors.New("missing bearer credential")
	// ErrMalformed - токен подписан верно, но не содержит идентификатор пользователя.
	ErrMalformed = errors.New("malformed session token")
)

// Claims - содержимое токена сессии.
type Claims struct {
	UserID         string `json:"uid"`
	Username       string `json:"username"`
	IssuedAtMillis int64  `json:"iat_ms"`
	jwt.RegisteredClaims
}

// Codec выпускает и разбирает токены сессии.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// New создаёт Codec. ttl <= 0 означает токены без срока действия.
func New(secret string, ttl time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue выпускает токен для пользователя.
func (c *Codec) Issue(userID, username string, nowMillis int64) (string, error) {
	const op = "sessiontoken.Issue"
	issuedAt := time.UnixMilli(nowMillis)
	claims := Claims{
		UserID:         userID,
		Username:       username,
		IssuedAtMillis: nowMillis,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(c.ttl))
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// Parse проверяет заголовок Authorization и возвращает содержимое токена.
func (c *Codec) Parse(header string) (*Claims, error) {
	const op = "sessiontoken.Parse"
	if !strings.HasPrefix(header, BearerPrefix) {
		return nil, ErrMissingBearer
	}
	raw := strings.TrimPrefix(header, BearerPrefix)
	if raw == "" {
		return nil, ErrMissingBearer
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrMalformed
	}
	return claims, nil
}

// Authenticate сообщает, содержит ли заголовок корректный подписанный токен.
func (c *Codec) Authenticate(header string) bool {
	_, err := c.Parse(header)
	return err == nil
}

// ExtractUserID возвращает идентификатор пользователя из заголовка.
// Для любого некорректного ввода возвращает "", false.
func (c *Codec) ExtractUserID(header string) (string, bool) {
	claims, err := c.Parse(header)
	if err != nil {
		return "", false
	}
	return claims.UserID, true
}
