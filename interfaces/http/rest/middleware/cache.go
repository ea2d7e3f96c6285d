package middleware

import (
	"net/http"
	"strings"

	"github.com/kraxel-io/kraxel-api/internal/db"
)

// noCacheHeader lets a client force fresh reads for one request.
const noCacheHeader = "X-No-Cache"

// CacheBypass propagates the X-No-Cache header into the request
// context so every query under it skips the cache.
func CacheBypass(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v := r.Header.Get(noCacheHeader); strings.EqualFold(v, "true") || v == "1" {
			r = r.WithContext(db.WithBypass(r.Context()))
		}
		next.ServeHTTP(w, r)
	})
}
