package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"

	"github.com/lithammer/shortuuid/v4"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// SafeCompare does a constant-time equality check over fixed-length
// SHA-256 digests so inputs of different lengths never short-circuit.
func SafeCompare(a, b string) bool {
	da := sha256.Sum256([]byte(a))
	db := sha256.Sum256([]byte(b))
	return subtle.ConstantTimeCompare(da[:], db[:]) == 1
}

// VerifyAccessCode checks a tenant access code against its stored form.
// New tenants store bcrypt hashes; seed data may still carry plaintext
// codes, recognizable by the missing bcrypt prefix.
func VerifyAccessCode(code, stored string) bool {
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(code)) == nil
	}
	return SafeCompare(code, stored)
}

// HashAccessCode hashes a plaintext access code for storage.
func HashAccessCode(code string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateAccessCode produces a random lowercase code for newly
// provisioned tenants. It is shown to the admin exactly once.
func GenerateAccessCode() string {
	code := strings.ToLower(shortuuid.New())
	if len(code) > 12 {
		code = code[:12]
	}
	return code
}
