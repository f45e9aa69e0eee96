package security

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

const (
	UserIDHeader = "X-User-ID"

	userIDCookie   = "trio_user_id"
	userIDLifetime = 30 * 24 * time.Hour
)

// GetUserID resolves the caller from the X-User-ID header, then the user cookie.
func GetUserID(r *http.Request) string {
	if headerUserID := strings.TrimSpace(r.Header.Get(UserIDHeader)); headerUserID != "" {
		return headerUserID
	}

	cookie, err := r.Cookie(userIDCookie)
	if err != nil {
		return ""
	}

	decoded, err := base64.StdEncoding.DecodeString(cookie.Value)
	if err != nil {
		return ""
	}

	return string(decoded)
}

func SetUserID(w http.ResponseWriter, userID string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     userIDCookie,
		Value:    base64.StdEncoding.EncodeToString([]byte(userID)),
		Path:     "/",
		HttpOnly: true,
		MaxAge:   int(userIDLifetime.Seconds()),
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}
