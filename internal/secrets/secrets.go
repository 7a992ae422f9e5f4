// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads the label server session token from a secrets
// directory. The token lives in a file named auth-token; surrounding
// whitespace is trimmed.
package secrets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// AuthTokenFile is the file holding the session token.
const AuthTokenFile = "auth-token"

// Secrets holds the credentials found in a secrets directory.
type Secrets struct {
	// AuthToken is sent as the auth_token cookie. Empty when absent.
	AuthToken string
}

// Load reads dir/auth-token. A missing directory or file is not an error
// and yields an empty Secrets. A token file that exists but cannot be read
// is an error.
func Load(dir string) (Secrets, error) {
	path := filepath.Join(dir, AuthTokenFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Secrets{}, nil
		}
		return Secrets{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return Secrets{AuthToken: strings.TrimSpace(string(data))}, nil
}
