package otp

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of digits in a generated code.
const CodeLength = 6

// GenerateCode draws a fixed-length decimal code from crypto/rand, each
// digit uniform over 0-9.
func GenerateCode(length int) (string, error) {
	if length <= 0 {
		length = CodeLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("otp: generate code: %w", err)
	}
	code := make([]byte, length)
	for i, b := range buf {
		code[i] = '0' + b%10
	}
	return string(code), nil
}

// HashCode hashes a code for storage. Plaintext codes never persist.
func HashCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("otp: hash code: %w", err)
	}
	return string(hash), nil
}

// VerifyCode reports whether code matches the stored hash.
func VerifyCode(code, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
