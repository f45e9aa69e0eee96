package security_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hilthontt/trio/infrastructure/security"
	"github.com/stretchr/testify/require"
)

func TestUserIDRoundTripsThroughCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	security.SetUserID(rec, "user-42", false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}

	require.Equal(t, "user-42", security.GetUserID(req))
}

func TestHeaderWinsOverCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	security.SetUserID(rec, "from-cookie", false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	req.Header.Set(security.UserIDHeader, "from-header")

	require.Equal(t, "from-header", security.GetUserID(req))
}

func TestMissingIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, security.GetUserID(req))
}
