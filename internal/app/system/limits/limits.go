// internal/app/system/limits/limits.go
package limits

import "net/http"

// Request body size limits for various features.
// These limits help prevent memory exhaustion from oversized requests.
const (
	// MaxRequestBody is the default cap on any request body. Reel uploads
	// are the largest requests the API accepts.
	MaxRequestBody = 200 << 20 // 200 MB

	// MultipartMemory is how much of a multipart form is held in memory;
	// the rest spills to temp files.
	MultipartMemory = 32 << 20 // 32 MB

	// MaxJSONBody caps the group create/join bodies.
	MaxJSONBody = 64 << 10 // 64 KB
)

// MaxBody caps request bodies at n bytes. Reads past the cap fail, and the
// handler's decode error turns into a 400.
func MaxBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
