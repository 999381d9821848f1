// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each recognized file in the directory is one secret: the filename is the
// key name and the file contents (trimmed) are the value.
//
// Supported key files: mast-api-token.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// MASTTokenKey is the filename holding the MAST API token used for
// exclusive-access data.
const MASTTokenKey = "mast-api-token"

// FS is the filesystem secrets are read from. Swappable so tests can run
// against an in-memory filesystem.
var FS afero.Fs = afero.NewOsFs()

// knownKeys lists the secret files the archive understands. Anything else
// in the directory is ignored.
var knownKeys = map[string]bool{
	MASTTokenKey: true,
}

// Load reads the recognized secret files in dir and returns a map of
// filename to trimmed contents. A missing directory or missing files are
// not errors; Load returns an empty map. Unreadable files produce a warning
// on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := afero.ReadDir(FS, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !knownKeys[entry.Name()] {
			continue
		}

		data, err := afero.ReadFile(FS, filepath.Join(dir, entry.Name()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", entry.Name(), err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[entry.Name()] = value
		}
	}

	return secrets, nil
}
