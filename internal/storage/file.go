package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidSlot = errors.New("invalid save slot")

// File keeps one save per slot as <dir>/<slot>.json. Writes go through a
// temp file and rename so a crash never leaves a half-written save.
type File struct {
	path string
}

func NewFile(dir, slot string) (*File, error) {
	if err := validateSlot(slot); err != nil {
		return nil, err
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".idlegalaxy")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create save dir: %w", err)
	}
	return &File{path: filepath.Join(dir, slot+".json")}, nil
}

func (f *File) Path() string { return f.path }

func (f *File) Load(_ context.Context) ([]byte, bool, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if len(raw) == 0 {
		return nil, false, nil
	}
	return raw, true, nil
}

func (f *File) Save(_ context.Context, raw []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".save-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

func (f *File) Close() error { return nil }

func validateSlot(slot string) error {
	if slot == "" || len(slot) > 64 || strings.ContainsAny(slot, `/\.: `) {
		return fmt.Errorf("%w: %q", ErrInvalidSlot, slot)
	}
	return nil
}
