// Package secrets resolves credentials from files, environment variables or
// inline configuration.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotConfigured is returned when no origin of a required secret holds a value.
var ErrNotConfigured = errors.New("secret is not configured")

// Source describes where a secret may come from. Origins are tried in the
// order File, Env, Value.
type Source struct {
	// Name is used in error messages.
	Name  string
	Value string
	File  string
	// Env names an environment variable holding the secret.
	Env string
	// Optional makes an unset secret resolve to "" instead of an error. An
	// unreadable or empty File is still an error.
	Optional bool
}

// Load returns the trimmed secret.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	if file := strings.TrimSpace(src.File); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s from file %q: %w", name, file, err)
		}
		secret := strings.TrimSpace(string(data))
		if secret == "" {
			return "", fmt.Errorf("%s file %q is empty", name, file)
		}
		return secret, nil
	}

	if env := strings.TrimSpace(src.Env); env != "" {
		if secret := strings.TrimSpace(os.Getenv(env)); secret != "" {
			return secret, nil
		}
	}

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}
	if src.Optional {
		return "", nil
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotConfigured)
}
