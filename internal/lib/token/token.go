// Package token генерирует случайные токены: непрозрачные токены сессий
// и строки-заглушки приватных ключей WireGuard. Ключи не являются
// криптографическими ключами Curve25519, это случайные идентификаторы
// в привычном base64-формате.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// NewSession возвращает случайный токен сессии: 32 байта энтропии
// в hex-представлении.
func NewSession() (string, error) {
	const op = "token.NewSession"
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hex.EncodeToString(buf), nil
}

// NewWireguardKey возвращает строку в формате приватного ключа WireGuard:
// 32 случайных байта в base64.
func NewWireguardKey() (string, error) {
	const op = "token.NewWireguardKey"
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
