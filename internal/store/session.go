package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"coopcart-cli/internal/model"
)

const sessionFileName = "session.json"

// SessionRegister is the single-slot durable record of the active room
// binding. It deliberately lives outside the sqlite store: clearing items and
// pending ops must never lose the binding, and leaving a room must clear the
// binding without touching anything else.
type SessionRegister struct {
	Dir string
}

func (r SessionRegister) path() string {
	return filepath.Join(r.Dir, sessionFileName)
}

// Load reads the persisted binding. ok=false means no room is bound.
func (r SessionRegister) Load() (model.Session, bool, error) {
	b, err := os.ReadFile(r.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Session{}, false, nil
		}
		return model.Session{}, false, err
	}
	var sess model.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		return model.Session{}, false, err
	}
	return sess, true, nil
}

func (r SessionRegister) Save(sess model.Session) error {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(r.Dir, "session.json.*.tmp", r.path(), b, 0o600)
}

// Clear removes the binding. Clearing an already-unbound register is not an
// error.
func (r SessionRegister) Clear() error {
	err := os.Remove(r.path())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// atomicWriteFile writes via a unique temp file + rename so concurrent
// processes never observe a torn session record.
func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
