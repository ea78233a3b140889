package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/teamenforcer/internal/api/apierr"
	"github.com/mcoot/teamenforcer/internal/model"
)

type contextKey string

const staffContextKey contextKey = "staff"

// StaffHeader names the operator a request acts for
const StaffHeader = "X-Staff-Identity"

// Auth creates middleware that accepts a bearer token matching any of the
// bcrypt hashes. With no hashes every request is let through.
func Auth(hashes []string, logger *slog.Logger) func(http.Handler) http.Handler {
	if len(hashes) == 0 {
		logger.Warn("no operator token hashes configured, the API is open")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(hashes) > 0 {
				token := extractToken(r)
				if token == "" || !tokenMatches(token, hashes) {
					apierr.WriteError(w, apierr.NewUnauthorizedError())
					return
				}
			}

			ctx := r.Context()
			if staff := strings.TrimSpace(r.Header.Get(StaffHeader)); staff != "" {
				ctx = context.WithValue(ctx, staffContextKey, model.Identity(staff))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func tokenMatches(token string, hashes []string) bool {
	for _, hash := range hashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) == nil {
			return true
		}
	}
	return false
}

// extractToken extracts the bearer token from the request
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// GetStaff returns the operator identity of the request, empty for the console
func GetStaff(ctx context.Context) model.Identity {
	staff, _ := ctx.Value(staffContextKey).(model.Identity)
	return staff
}

// HashToken returns a bcrypt hash suitable for the operator token list
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
