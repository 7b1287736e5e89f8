package auth

import (
	"strings"
	"sync"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) (bool, error)
}

// Argon2Hasher creates argon2id hashes. It still verifies bcrypt hashes
// written by earlier deployments so existing admins can log in.
type Argon2Hasher struct {
	Params *argon2id.Params
}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{Params: argon2id.DefaultParams}
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, h.Params)
}

func (h *Argon2Hasher) Compare(password, hash string) (bool, error) {
	if isBcrypt(hash) {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if err == bcrypt.ErrMismatchedHashAndPassword {
			return false, nil
		}
		return err == nil, err
	}
	return argon2id.ComparePasswordAndHash(password, hash)
}

func isBcrypt(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") || strings.HasPrefix(hash, "$2b$") || strings.HasPrefix(hash, "$2y$")
}

// decoy is compared against when no user matches, so a login for an
// unknown email costs the same as a wrong password.
type decoy struct {
	once sync.Once
	hash string
	err  error
}

func (d *decoy) compare(h PasswordHasher, password string) {
	d.once.Do(func() {
		d.hash, d.err = h.Hash("decoy-password-never-valid")
	})
	if d.err == nil {
		_, _ = h.Compare(password, d.hash)
	}
}
