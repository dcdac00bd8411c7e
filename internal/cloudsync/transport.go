// Package cloudsync mirrors payment collections to a remote blob store and
// pulls them back.
package cloudsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"paytrack/internal/models"
)

// ErrNoRemoteSnapshot is returned by Pull when nothing was pushed yet.
var ErrNoRemoteSnapshot = errors.New("no remote snapshot")

// Transport moves whole collections to and from the remote store.
type Transport interface {
	Pull(ctx context.Context, userID string) ([]models.Payment, error)
	Push(ctx context.Context, userID string, snapshot []models.Payment) error
}

// blob is the stored document, one per user.
type blob struct {
	Record    []models.Payment `json:"record"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// FileTransport stores each user's collection as dir/<userID>.json.
type FileTransport struct {
	dir string
}

// NewFileTransport creates dir if needed and returns a transport over it.
func NewFileTransport(dir string) (*FileTransport, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create sync dir: %w", err)
	}
	return &FileTransport{dir: dir}, nil
}

func (t *FileTransport) path(userID string) (string, error) {
	if userID == "" || strings.ContainsAny(userID, `/\`) || strings.Contains(userID, "..") {
		return "", fmt.Errorf("invalid user id %q", userID)
	}
	return filepath.Join(t.dir, userID+".json"), nil
}

// Pull implements Transport.
func (t *FileTransport) Pull(ctx context.Context, userID string) ([]models.Payment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := t.path(userID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRemoteSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var doc blob
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc.Record, nil
}

// Push implements Transport. The file is replaced atomically.
func (t *FileTransport) Push(ctx context.Context, userID string, snapshot []models.Payment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := t.path(userID)
	if err != nil {
		return err
	}
	if snapshot == nil {
		snapshot = []models.Payment{}
	}

	data, err := json.Marshal(blob{Record: snapshot, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(t.dir, userID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
