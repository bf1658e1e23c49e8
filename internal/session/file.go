package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

const fileName = "session.json"

var ErrNoSession = errors.New("no stored session; run `shortdash session set` or pass --token")

func Path(dir string) string {
	return filepath.Join(dir, fileName)
}

// Load reads the persisted session from dir. A missing file yields ErrNoSession.
func Load(dir string) (Session, error) {
	b, err := os.ReadFile(Path(dir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, ErrNoSession
		}
		return Session{}, err
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Save writes the session with owner-only permissions; it holds a bearer token.
func Save(dir string, s Session) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, fileName+".*.tmp", Path(dir), b, 0o600)
}

func Clear(dir string) error {
	err := os.Remove(Path(dir))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

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
