package fetcher

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-rod/rod/lib/proto"
)

// CookieJar persists browser cookies between fetches so solved challenges
// and sessions survive across checks. An empty path disables it.
type CookieJar struct {
	mu   sync.Mutex
	path string
}

func NewCookieJar(path string) *CookieJar {
	return &CookieJar{path: path}
}

func (j *CookieJar) Load() ([]*proto.NetworkCookie, error) {
	if j.path == "" {
		return nil, nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := os.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookies: %w", err)
	}

	var cookies []*proto.NetworkCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("decode cookies: %w", err)
	}
	return cookies, nil
}

func (j *CookieJar) Save(cookies []*proto.NetworkCookie) error {
	if j.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cookies: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.path), 0o755); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write cookies: %w", err)
	}
	return os.Rename(tmp, j.path)
}
