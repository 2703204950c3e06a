package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret", "myflix-api", time.Hour)

	token, err := issuer.Issue("alice01")
	require.NoError(t, err)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice01", claims.Subject)
	assert.Equal(t, "myflix-api", claims.Issuer)
}

func TestParseRejects(t *testing.T) {
	issuer := NewIssuer("secret", "myflix-api", time.Hour)
	token, err := issuer.Issue("alice01")
	require.NoError(t, err)

	other := NewIssuer("other-secret", "myflix-api", time.Hour)
	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	wrongIssuer := NewIssuer("secret", "someone-else", time.Hour)
	_, err = wrongIssuer.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewIssuer("secret", "myflix-api", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = expired.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequire(t *testing.T) {
	issuer := NewIssuer("secret", "myflix-api", time.Hour)
	token, err := issuer.Issue("alice01")
	require.NoError(t, err)

	var seen string
	handler := issuer.Require(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = Subject(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	cases := []struct {
		header string
		want   int
	}{
		{"Bearer " + token, http.StatusNoContent},
		{"Bearer " + token + " ", http.StatusNoContent},
		{"Bearer ", http.StatusUnauthorized},
		{token, http.StatusUnauthorized},
		{"", http.StatusUnauthorized},
		{"Bearer garbage", http.StatusUnauthorized},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, c.want, rec.Code, "header %q", c.header)
	}
	assert.Equal(t, "alice01", seen)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
}
