// Package cryptox derives password verifiers. Passwords are never stored:
// both backends keep only a random salt and sha256(argon2id(password, salt)).
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/dmitrijs2005/poreview/internal/common"
	"golang.org/x/crypto/argon2"
)

const saltSize = 32

// Credential is the opaque credential material stored next to a user.
type Credential struct {
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

func MakeVerifier(masterKey []byte) []byte {
	hash := sha256.Sum256(masterKey)
	return hash[:]
}

func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// NewCredential salts and derives a verifier for password.
func NewCredential(password string) Credential {
	salt := common.GenerateRandByteArray(saltSize)
	return Credential{
		Salt:     salt,
		Verifier: MakeVerifier(DeriveMasterKey([]byte(password), salt)),
	}
}

// Matches reports whether password derives the stored verifier. The
// comparison is constant time.
func (c Credential) Matches(password string) bool {
	if len(c.Salt) == 0 || len(c.Verifier) == 0 {
		return false
	}
	candidate := MakeVerifier(DeriveMasterKey([]byte(password), c.Salt))
	return subtle.ConstantTimeCompare(c.Verifier, candidate) == 1
}
