// Package store persists clipboard snapshots as JSON documents.
//
// The document has a single "formats" array; each entry carries
// "format_id", "format_name" (null for predefined formats and for registered
// formats whose name was unknown at capture) and "data", the
// payload in standard base64.
package store

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"clipkeeper/pkg/clipboard"
	"clipkeeper/pkg/errors"
)

const (
	AppDirName      = "clipkeeper"
	DefaultFileName = "clipboard_snapshot.json"
)

type document struct {
	Formats *[]entry `json:"formats"`
}

type entry struct {
	FormatID   *uint32 `json:"format_id"`
	FormatName *string `json:"format_name"`
	Data       *string `json:"data"`
}

// Encode serializes s into an indented JSON document.
func Encode(s clipboard.Snapshot) ([]byte, error) {
	formats := s.Formats()
	entries := make([]entry, 0, len(formats))
	for _, f := range formats {
		id := f.Number()
		data := base64.StdEncoding.EncodeToString(f.Data)
		e := entry{FormatID: &id, Data: &data}
		if name, ok := f.Name(); ok {
			e.FormatName = &name
		}
		entries = append(entries, e)
	}

	out, err := json.MarshalIndent(document{Formats: &entries}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return out, nil
}

// Decode parses a document produced by Encode.
func Decode(data []byte) (clipboard.Snapshot, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return clipboard.Snapshot{}, fmt.Errorf("invalid snapshot document: %w", err)
	}
	if doc.Formats == nil {
		return clipboard.Snapshot{}, fmt.Errorf("invalid snapshot document: missing \"formats\"")
	}

	formats := make([]clipboard.Format, 0, len(*doc.Formats))
	for i, e := range *doc.Formats {
		f, err := e.toFormat()
		if err != nil {
			return clipboard.Snapshot{}, fmt.Errorf("invalid snapshot document: formats[%d]: %w", i, err)
		}
		formats = append(formats, f)
	}
	return clipboard.NewSnapshot(formats...), nil
}

func (e entry) toFormat() (clipboard.Format, error) {
	if e.FormatID == nil {
		return clipboard.Format{}, fmt.Errorf("missing \"format_id\"")
	}
	if e.Data == nil {
		return clipboard.Format{}, fmt.Errorf("missing \"data\"")
	}

	payload, err := base64.StdEncoding.DecodeString(*e.Data)
	if err != nil {
		return clipboard.Format{}, fmt.Errorf("data is not valid base64: %w", err)
	}

	id, err := clipboard.ParseFormatID(*e.FormatID, e.FormatName)
	if err != nil {
		return clipboard.Format{}, err
	}
	return clipboard.NewFormat(id, payload), nil
}

// DefaultPath returns <user config dir>/clipkeeper/clipboard_snapshot.json,
// which is %APPDATA%\clipkeeper on Windows.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppDirName, DefaultFileName), nil
}

// ResolvePath returns path, or the default location when path is empty.
func ResolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	p, err := DefaultPath()
	if err != nil {
		return "", errors.FileError("failed to determine default snapshot path", err)
	}
	return p, nil
}

// Save writes s to path (or the default location) and returns the path
// written.
func Save(s clipboard.Snapshot, path string) (string, error) {
	filePath, err := ResolvePath(path)
	if err != nil {
		return "", err
	}

	data, err := Encode(s)
	if err != nil {
		return "", errors.NewWithError(errors.ExitCodeGeneral, "failed to encode snapshot", err)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return "", errors.FileError("failed to create snapshot directory", err)
	}
	// Clipboard payloads may hold passwords; keep the file private.
	if err := os.WriteFile(filePath, data, 0600); err != nil {
		return "", errors.FileError("failed to write snapshot file", err)
	}

	return filePath, nil
}

// Load reads a snapshot from path (or the default location).
func Load(path string) (clipboard.Snapshot, error) {
	filePath, err := ResolvePath(path)
	if err != nil {
		return clipboard.Snapshot{}, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return clipboard.Snapshot{}, errors.SnapshotFileNotFoundError(filePath)
		}
		return clipboard.Snapshot{}, errors.FileError("failed to read snapshot file", err)
	}

	s, err := Decode(data)
	if err != nil {
		return clipboard.Snapshot{}, errors.InvalidSnapshotError(filePath, err)
	}
	return s, nil
}
