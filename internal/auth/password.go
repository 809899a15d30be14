package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// argon2idパラメータ。
// time=1, memory=64MiB, threads=4 はargon2の推奨値。
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 32
)

// generateSalt はユーザーごとのランダムなソルトを生成する。
func generateSalt() ([]byte, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// hashPassword はargon2idでパスワードの検証値を導出する。
// パスワード自体は保存せず、この検証値とソルトのみを永続化する。
func hashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// verifyPassword は入力パスワードから導出した検証値を保存済みの値と
// 定数時間で比較する。
func verifyPassword(password string, salt, hash []byte) bool {
	derived := hashPassword(password, salt)
	return subtle.ConstantTimeCompare(derived, hash) == 1
}
