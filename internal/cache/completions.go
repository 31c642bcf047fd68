// Package cache stores raw model completions on disk so a decode run can be
// repeated against the exact text the model produced.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ext is the suffix of completion files; anything else in Dir is ignored.
const ext = ".completion"

// Completions stores raw completion text keyed by model and prompt digest.
type Completions struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the directory and 0600 on files.
	StrictPerms bool
}

func (c *Completions) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	// Tighten a directory that existed before StrictPerms was turned on.
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

// KeyFrom builds a cache key from model and prompt.
func KeyFrom(model string, prompt string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + prompt))
	return hex.EncodeToString(h[:])
}

func (c *Completions) pathFor(key string) string {
	return filepath.Join(c.Dir, key+ext)
}

// Get returns the cached completion for key. A missing entry is not an error.
func (c *Completions) Get(_ context.Context, key string) (string, bool, error) {
	if err := c.ensureDir(); err != nil {
		return "", false, err
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return "", false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return string(b), true, nil
}

// Save writes a completion to the cache.
func (c *Completions) Save(_ context.Context, key string, text string) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	return os.WriteFile(c.pathFor(key), []byte(text), mode)
}
