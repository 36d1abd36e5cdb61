package middleware

import (
	"net/http"

	"github.com/phrazzld/taskman-api/internal/api/shared"
)

// UserIDHeader is the request header carrying the caller identity supplied
// by the upstream identity collaborator (gateway or auth proxy). This
// service performs no authentication of its own.
const UserIDHeader = "X-User-ID"

// Identity copies the caller identity from the request header into the
// context so handlers and the coordinator can attribute mutations.
// Requests without the header pass through with no identity set.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := r.Header.Get(UserIDHeader); userID != "" {
			r = r.WithContext(shared.SetUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}
