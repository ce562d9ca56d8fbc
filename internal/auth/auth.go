package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// githubTokenEnvVars lists the environment variables checked for a GitHub token,
// in priority order.
var githubTokenEnvVars = []string{
	"GITHUB_TOKEN",
	"GH_TOKEN",
}

// Token returns the GitHub personal access token from the environment.
// It checks GITHUB_TOKEN first, then GH_TOKEN.
func Token() (string, error) {
	for _, env := range githubTokenEnvVars {
		if v := os.Getenv(env); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf(
		"no GitHub token found: set %s or %s in your environment",
		githubTokenEnvVars[0], githubTokenEnvVars[1],
	)
}

// LoadTokenFile returns the first line of the file at path, trimmed.
// The boolean is false when the file cannot be read or the line is empty.
func LoadTokenFile(path string) (string, bool) {
	f, err := os.Open(expandHome(path))
	if err != nil {
		return "", false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return "", false
	}
	token := strings.TrimSpace(scanner.Text())
	return token, token != ""
}

// Resolve picks the token for remote requests: the token file when one is
// given and readable, otherwise the environment.
func Resolve(tokenFile string) (string, error) {
	if tokenFile != "" {
		if token, ok := LoadTokenFile(tokenFile); ok {
			return token, nil
		}
		if tok, err := Token(); err == nil {
			return tok, nil
		}
		return "", fmt.Errorf("failed to load token from %s", tokenFile)
	}
	return Token()
}

// LoadDotEnv loads variables from a .env file without overriding ones that
// are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
