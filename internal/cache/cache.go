// Package cache persists the last linker map dump seen for each server so
// the function picker is usable before the fresh dump arrives.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/henri123lemoine/asmdw/internal/debug"
)

// Entry is one cached linker map dump.
type Entry struct {
	ServerURL string    `json:"server_url"`
	Dump      string    `json:"dump"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is a directory of cache entries, one file per server.
type Store struct {
	Dir string
}

// New returns a store rooted at dir, or at the user cache directory when
// dir is empty.
func New(dir string) *Store {
	if dir == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}
		dir = filepath.Join(cacheDir, "asmdw")
	}
	return &Store{Dir: dir}
}

// path derives the file for a server. URLs are hashed because they are not
// valid file names.
func (s *Store) path(serverURL string) string {
	sum := sha256.Sum256([]byte(serverURL))
	return filepath.Join(s.Dir, "linkermap-"+hex.EncodeToString(sum[:8])+".json")
}

// Load returns the cached dump for serverURL, or nil if there is none.
// Age is not checked; the caller always refreshes.
func (s *Store) Load(serverURL string) *Entry {
	path := s.path(serverURL)

	// Shared lock: blocks while a writer holds the exclusive one.
	fileLock := flock.New(path + ".lock")
	if err := fileLock.RLock(); err != nil {
		return nil
	}
	defer fileLock.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		debug.Log(debug.CatCache, "corrupt cache %s: %v", path, err)
		return nil
	}
	if entry.ServerURL != serverURL {
		return nil
	}
	debug.Log(debug.CatCache, "hit %s (%s old)", serverURL, time.Since(entry.UpdatedAt).Round(time.Second))
	return &entry
}

// Save stores dump for serverURL.
func (s *Store) Save(serverURL, dump string) error {
	data, err := json.Marshal(Entry{
		ServerURL: serverURL,
		Dump:      dump,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return err
	}

	path := s.path(serverURL)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	fileLock := flock.New(path + ".lock")
	if err := fileLock.Lock(); err != nil {
		return err
	}
	defer fileLock.Unlock()

	// Write to a temp file then rename so readers never see a partial file.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	debug.Log(debug.CatCache, "saved %s (%d bytes)", serverURL, len(dump))
	return os.Rename(tmpPath, path)
}
