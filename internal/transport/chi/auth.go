package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	gen "github.com/kailas-cloud/kitfinder/internal/transport/generated"
)

// publicPaths are served without an operator key.
var publicPaths = map[string]bool{
	"/health":  true,
	"/metrics": true,
	"/options": true,
}

// BearerAuthMiddleware admits requests carrying one of apiKeys as a Bearer
// token. Blank keys are ignored; with none left the middleware is a no-op.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	var digests [][sha256.Size]byte
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			token, problem := bearerToken(r)
			if problem != "" {
				unauthorized(w, problem)
				return
			}
			if !anyDigestMatches(digests, token) {
				unauthorized(w, "invalid api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token; the scheme name is case-insensitive.
func bearerToken(r *http.Request) (token, problem string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "authorization header must use Bearer scheme"
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", "empty bearer token"
	}
	return token, ""
}

// anyDigestMatches hashes token so comparisons take the same time for every
// key length, and checks all keys.
func anyDigestMatches(digests [][sha256.Size]byte, token string) bool {
	sum := sha256.Sum256([]byte(token))
	found := 0
	for i := range digests {
		found |= subtle.ConstantTimeCompare(digests[i][:], sum[:])
	}
	return found == 1
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="kitfinder"`)
	writeError(w, http.StatusUnauthorized, gen.ErrorResponseCodeUnauthorized, msg)
}
