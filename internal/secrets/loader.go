package secrets

import (
	"fmt"
	"os"
	"strings"
)

// Source describes where a secret may come from. Lookup order is File,
// FileEnv, Value, Env; the first non-empty location wins.
type Source struct {
	// Name is used in error messages.
	Name string
	// File points to a file holding the secret.
	File string
	// FileEnv names an environment variable holding a file path.
	FileEnv string
	// Value is an inline secret from configuration or flags.
	Value string
	// Env names an environment variable holding the secret itself.
	Env string
}

// Load returns the trimmed secret or an error naming the places searched.
func Load(src Source) (string, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		name = "secret"
	}

	file := strings.TrimSpace(src.File)
	if file == "" && src.FileEnv != "" {
		file = strings.TrimSpace(os.Getenv(src.FileEnv))
	}
	if file != "" {
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

	if secret := strings.TrimSpace(src.Value); secret != "" {
		return secret, nil
	}
	if src.Env != "" {
		if secret := strings.TrimSpace(os.Getenv(src.Env)); secret != "" {
			return secret, nil
		}
	}

	return "", fmt.Errorf("%s is not configured", name)
}
