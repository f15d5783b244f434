package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/herald/internal/model"
)

// OperatorKeyHeader carries the schedule management key
const OperatorKeyHeader = "X-Operator-Key"

// OperatorKey guards operator routes with a bcrypt-hashed shared key. An
// empty hash disables the routes entirely.
type OperatorKey struct {
	hash []byte

	// last accepted key digest, so repeated calls skip bcrypt
	mu       sync.Mutex
	accepted [sha256.Size]byte
	hasOK    bool
}

// NewOperatorKey creates the guard from a bcrypt hash
func NewOperatorKey(hash string) *OperatorKey {
	return &OperatorKey{hash: []byte(hash)}
}

// Enabled reports whether a key hash is configured
func (o *OperatorKey) Enabled() bool {
	return len(o.hash) > 0
}

// Verify checks a presented key against the hash
func (o *OperatorKey) Verify(key string) bool {
	if !o.Enabled() || key == "" {
		return false
	}

	digest := sha256.Sum256([]byte(key))
	o.mu.Lock()
	cached := o.hasOK && subtle.ConstantTimeCompare(digest[:], o.accepted[:]) == 1
	o.mu.Unlock()
	if cached {
		return true
	}

	if bcrypt.CompareHashAndPassword(o.hash, []byte(key)) != nil {
		return false
	}
	o.mu.Lock()
	o.accepted = digest
	o.hasOK = true
	o.mu.Unlock()
	return true
}

// Require returns middleware rejecting requests without a valid key
func (o *OperatorKey) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !o.Enabled() {
			model.NewServiceUnavailableError("schedule management is disabled").WriteJSON(w)
			return
		}
		if !o.Verify(r.Header.Get(OperatorKeyHeader)) {
			model.NewOperatorKeyError().WriteJSON(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}
