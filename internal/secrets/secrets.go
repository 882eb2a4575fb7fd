// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of
// plain-text files plus environment variables. Each file in the directory
// represents one secret: the filename is the key name and the file contents
// (trimmed) are the value. Environment variables win over files so CI
// schedulers can inject credentials without touching disk.
//
// Supported keys: gemini-api-key (GEMINI_API_KEY), smtp-username
// (SMTP_USERNAME), smtp-password (SMTP_PASSWORD), semantic-scholar-api-key
// (SEMANTIC_SCHOLAR_API_KEY). Values are consumed, never logged.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Well-known secret names.
const (
	GeminiAPIKey          = "gemini-api-key"
	SMTPUsername          = "smtp-username"
	SMTPPassword          = "smtp-password"
	SemanticScholarAPIKey = "semantic-scholar-api-key"
)

// envNames maps secret names to their environment variable overrides.
var envNames = map[string]string{
	GeminiAPIKey:          "GEMINI_API_KEY",
	SMTPUsername:          "SMTP_USERNAME",
	SMTPPassword:          "SMTP_PASSWORD",
	SemanticScholarAPIKey: "SEMANTIC_SCHOLAR_API_KEY",
}

// Load reads all files in dir and returns a map of filename to trimmed
// contents, then overlays the well-known environment variables. A missing
// directory or missing files are not errors; Load returns whatever the
// environment provides. Unreadable files produce a warning on stderr but
// do not abort.
func Load(dir string) (map[string]string, error) {
	secrets := make(map[string]string)

	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	for name, env := range envNames {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			secrets[name] = v
		}
	}

	return secrets, nil
}
