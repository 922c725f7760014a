package v1

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"sync"
	"time"
)

// exportTTL 下载链接有效期
const exportTTL = 10 * time.Minute

type exportDownload struct {
	filePath  string
	fileName  string
	expiresAt time.Time
}

// exportDownloadStore 一次性下载令牌
type exportDownloadStore struct {
	mu    sync.Mutex
	items map[string]exportDownload
	now   func() time.Time
}

func newExportDownloadStore() *exportDownloadStore {
	return &exportDownloadStore{
		items: make(map[string]exportDownload),
		now:   time.Now,
	}
}

func (s *exportDownloadStore) put(filePath, fileName string, ttl time.Duration) (token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	token = newRandomToken(24)
	s.items[token] = exportDownload{
		filePath:  filePath,
		fileName:  fileName,
		expiresAt: now.Add(ttl),
	}
	return token
}

// take 取出并作废令牌
func (s *exportDownloadStore) take(token string) (exportDownload, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	v, ok := s.items[token]
	if !ok {
		return exportDownload{}, false
	}
	delete(s.items, token)
	return v, true
}

func (s *exportDownloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			_ = os.Remove(v.filePath)
			delete(s.items, k)
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
