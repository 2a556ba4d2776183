package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write secret: %v", err)
	}
	return path
}

func TestLoadPrecedence(t *testing.T) {
	t.Setenv("TEST_KEY", " from-env ")
	t.Setenv("TEST_KEY_FILE", writeFile(t, "from-env-file\n"))

	tests := []struct {
		name string
		src  Source
		want string
	}{
		{name: "file wins", src: Source{File: writeFile(t, " from-file\n"), FileEnv: "TEST_KEY_FILE", Value: "inline", Env: "TEST_KEY"}, want: "from-file"},
		{name: "file env", src: Source{FileEnv: "TEST_KEY_FILE", Value: "inline", Env: "TEST_KEY"}, want: "from-env-file"},
		{name: "inline value", src: Source{FileEnv: "UNSET_FILE_VAR", Value: " inline ", Env: "TEST_KEY"}, want: "inline"},
		{name: "env", src: Source{Env: "TEST_KEY"}, want: "from-env"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      Source
		contains string
	}{
		{name: "nothing", src: Source{Name: "gemini api key"}, contains: "gemini api key is not configured"},
		{name: "empty file", src: Source{File: writeFile(t, "  \n")}, contains: "is empty"},
		{name: "missing file", src: Source{File: filepath.Join(t.TempDir(), "absent")}, contains: "reading secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.src)
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Fatalf("expected error containing %q, got %v", tt.contains, err)
			}
		})
	}
}
