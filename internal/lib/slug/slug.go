// Package slug генерирует случайные строки из [a-z0-9] для публичных ссылок и токенов.
package slug

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Length - длина slug публичного резюме.
const Length = 12

// TokenLength - длина токена подтверждения почты.
const TokenLength = 32

// New возвращает slug длиной Length.
func New() (string, error) {
	return Random(Length)
}

// NewToken возвращает токен подтверждения почты длиной TokenLength.
func NewToken() (string, error) {
	return Random(TokenLength)
}

// Random возвращает строку длиной n из равномерно распределённых символов алфавита.
func Random(n int) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("slug.Random: %w", err)
		}
		buf[i] = alphabet[idx.Int64()]
	}
	return string(buf), nil
}
