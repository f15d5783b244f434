package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"
)

// IdempotencyStore remembers responses to POST requests that carried an
// Idempotency-Key, so a retried generate call does not publish twice.
type IdempotencyStore struct {
	mu       sync.RWMutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

type idempotencyEntry struct {
	status    int
	headers   http.Header
	body      []byte
	expiresAt time.Time
	inFlight  bool
	done      chan struct{}
}

// IdempotencyConfig holds configuration for idempotency middleware
type IdempotencyConfig struct {
	TTL     time.Duration // How long to keep results (default 24h)
	Cleanup time.Duration // Cleanup interval (default 1h)
}

// NewIdempotencyStore creates a new idempotency store
func NewIdempotencyStore(cfg IdempotencyConfig) *IdempotencyStore {
	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Cleanup == 0 {
		cfg.Cleanup = time.Hour
	}

	store := &IdempotencyStore{
		entries:  make(map[string]*idempotencyEntry),
		ttl:      cfg.TTL,
		stopChan: make(chan struct{}),
	}

	go store.cleanupLoop(cfg.Cleanup)

	return store
}

// Stop stops the cleanup goroutine
func (s *IdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

func (s *IdempotencyStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopChan:
			return
		}
	}
}

func (s *IdempotencyStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, entry := range s.entries {
		if !entry.inFlight && entry.expiresAt.Before(now) {
			delete(s.entries, key)
		}
	}
}

// generateKey fingerprints the client, the key and the request
func generateKey(client, idempotencyKey, path string, body []byte) string {
	h := sha256.New()
	for _, part := range [][]byte{[]byte(client), []byte(idempotencyKey), []byte(path), body} {
		h.Write(part)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// idempotencyResponseWriter captures the response for caching
type idempotencyResponseWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *idempotencyResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *idempotencyResponseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func replay(w http.ResponseWriter, entry *idempotencyEntry) {
	for k, v := range entry.headers {
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(entry.status)
	_, _ = w.Write(entry.body)
}

// Idempotency returns middleware that replays responses for repeated
// POST requests with the same Idempotency-Key. Server errors are not
// remembered so the caller can retry them.
func Idempotency(store *IdempotencyStore) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := r.Header.Get("Idempotency-Key")
			if r.Method != http.MethodPost || idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := generateKey(ClientKey(r), idempotencyKey, r.URL.Path, body)

			store.mu.Lock()
			entry, exists := store.entries[key]
			if exists && entry.inFlight {
				store.mu.Unlock()
				<-entry.done

				store.mu.RLock()
				entry = store.entries[key]
				store.mu.RUnlock()
				if entry != nil && !entry.inFlight {
					replay(w, entry)
					return
				}
				store.mu.Lock()
			} else if exists && entry.expiresAt.After(time.Now()) {
				store.mu.Unlock()
				replay(w, entry)
				return
			}

			entry = &idempotencyEntry{inFlight: true, done: make(chan struct{})}
			store.entries[key] = entry
			store.mu.Unlock()

			irw := &idempotencyResponseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(irw, r)

			store.mu.Lock()
			entry.inFlight = false
			if irw.status >= http.StatusInternalServerError {
				delete(store.entries, key)
			} else {
				entry.status = irw.status
				entry.headers = irw.Header().Clone()
				entry.headers.Del("X-Request-ID")
				entry.body = irw.body.Bytes()
				entry.expiresAt = time.Now().Add(store.ttl)
			}
			close(entry.done)
			store.mu.Unlock()
		})
	}
}
