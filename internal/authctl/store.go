package authctl

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bktSession = []byte("session")

// CookieFile persists the session cookies between invocations in a small
// bolt file readable by the owner only. No file means no session.
type CookieFile struct {
	path string
}

func NewCookieFile(path string) *CookieFile { return &CookieFile{path: path} }

// DefaultCookiePath is ~/.authctl/session.db.
func DefaultCookiePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".authctl-session.db"
	}
	return filepath.Join(home, ".authctl", "session.db")
}

func (f *CookieFile) Load() ([]*http.Cookie, error) {
	if _, err := os.Stat(f.path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	db, err := f.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var out []*http.Cookie
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bktSession)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			out = append(out, &http.Cookie{Name: string(k), Value: string(v), Path: "/"})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	return out, nil
}

// Save replaces the stored cookies. An empty list deletes the file.
func (f *CookieFile) Save(cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	db, err := f.open()
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bktSession); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(bktSession)
		if err != nil {
			return err
		}
		for _, c := range cookies {
			if err := b.Put([]byte(c.Name), []byte(c.Value)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (f *CookieFile) open() (*bolt.DB, error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(f.path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	return db, nil
}
