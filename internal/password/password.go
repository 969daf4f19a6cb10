// Package password verifies credentials against the hash formats found
// in the legacy user store: plain sha256 hex digests, bcrypt, Werkzeug
// pbkdf2 and scrypt strings, and (for seeded test accounts) plaintext.
// New hashes are always bcrypt.
package password

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"hash"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

var sha256HexRe = regexp.MustCompile(`^[a-f0-9]{64}$`)
var hexRe = regexp.MustCompile(`^[a-fA-F0-9]+$`)

// Verify checks plain against a stored credential in any supported
// format. Unknown formats fall back to a constant-time plaintext
// comparison.
func Verify(plain, stored string) bool {
	if plain == "" || stored == "" {
		return false
	}

	if sha256HexRe.MatchString(strings.ToLower(stored)) {
		digest := sha256.Sum256([]byte(plain))
		candidate := hex.EncodeToString(digest[:])
		return safeCompare(candidate, strings.ToLower(stored))
	}

	if strings.HasPrefix(stored, "$2a$") || strings.HasPrefix(stored, "$2b$") || strings.HasPrefix(stored, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}

	if strings.HasPrefix(stored, "pbkdf2:") || strings.HasPrefix(stored, "scrypt:") {
		return verifyWerkzeug(plain, stored)
	}

	return safeCompare(plain, stored)
}

// Hash produces a bcrypt hash for newly set passwords.
func Hash(plain string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(plain), 10)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Werkzeug stores "method$salt$hash", e.g.
// "pbkdf2:sha256:600000$abc$..." or "scrypt:32768:8:1$abc$...".
func verifyWerkzeug(plain, stored string) bool {
	parts := strings.SplitN(stored, "$", 3)
	if len(parts) != 3 {
		return false
	}
	method, salt, storedHash := parts[0], parts[1], parts[2]
	length, format := decodeHashLength(storedHash)

	var derived []byte
	switch {
	case strings.HasPrefix(method, "pbkdf2:"):
		fields := strings.Split(method, ":")
		digest := "sha256"
		iterations := 600000
		if len(fields) > 1 && fields[1] != "" {
			digest = fields[1]
		}
		if len(fields) > 2 {
			if n, err := strconv.Atoi(fields[2]); err == nil {
				iterations = n
			}
		}
		newHash := digestFunc(digest)
		if newHash == nil {
			return false
		}
		derived = pbkdf2.Key([]byte(plain), []byte(salt), iterations, length, newHash)
	case strings.HasPrefix(method, "scrypt:"):
		fields := strings.Split(method, ":")
		n, r, p := 32768, 8, 1
		if len(fields) > 1 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				n = v
			}
		}
		if len(fields) > 2 {
			if v, err := strconv.Atoi(fields[2]); err == nil {
				r = v
			}
		}
		if len(fields) > 3 {
			if v, err := strconv.Atoi(fields[3]); err == nil {
				p = v
			}
		}
		var err error
		derived, err = scrypt.Key([]byte(plain), []byte(salt), n, r, p, length)
		if err != nil {
			return false
		}
	default:
		return false
	}

	var candidate string
	if format == "hex" {
		candidate = hex.EncodeToString(derived)
	} else {
		candidate = base64.StdEncoding.EncodeToString(derived)
	}
	return safeCompare(strings.TrimRight(candidate, "="), strings.TrimRight(storedHash, "="))
}

func digestFunc(name string) func() hash.Hash {
	switch name {
	case "sha1":
		return sha1.New
	case "sha256":
		return sha256.New
	case "sha512":
		return sha512.New
	default:
		return nil
	}
}

func decodeHashLength(storedHash string) (int, string) {
	if hexRe.MatchString(storedHash) && len(storedHash)%2 == 0 {
		return len(storedHash) / 2, "hex"
	}
	if raw, err := base64.StdEncoding.DecodeString(storedHash); err == nil && len(raw) > 0 {
		return len(raw), "base64"
	}
	return 32, "base64"
}

func safeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
