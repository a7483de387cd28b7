package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/warelane/warelane/internal/shared"
)

func newManager(t *testing.T) (*shared.SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func commit(t *testing.T, sm *shared.SessionManager, sess *shared.Session) *http.Cookie {
	t.Helper()
	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, sm.Commit(context.Background(), res, req, sess))
	cookies := res.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("user-1", "admin")
	sess.Set("inventory_count_state", `{"step":"warehouse"}`)
	cookie := commit(t, sm, sess)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	restored, err := sm.Load(context.Background(), next)
	require.NoError(t, err)
	require.Equal(t, "user-1", restored.User())
	require.Equal(t, "admin", restored.Role())
	require.Equal(t, `{"step":"warehouse"}`, restored.Get("inventory_count_state"))
}

func TestSessionDestroyClearsStoreAndCookie(t *testing.T) {
	sm, mr := newManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("user-1", "viewer")
	cookie := commit(t, sm, sess)
	require.True(t, mr.Exists("session:"+cookie.Value))

	sess.Destroy()
	require.Empty(t, sess.User())

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), res, req, sess))
	require.False(t, mr.Exists("session:"+cookie.Value))

	cleared := res.Result().Cookies()
	require.NotEmpty(t, cleared)
	require.Equal(t, -1, cleared[0].MaxAge)
}

func TestSessionExpiredCookieYieldsFreshSession(t *testing.T) {
	sm, mr := newManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("user-1", "viewer")
	cookie := commit(t, sm, sess)

	mr.FastForward(2 * time.Hour)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	restored, err := sm.Load(context.Background(), next)
	require.NoError(t, err)
	require.Empty(t, restored.User())
}

func TestCSRFTokenStableWithinSession(t *testing.T) {
	sm, _ := newManager(t)
	csrf := shared.NewCSRFManager("csrfsecret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)

	first, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	second, err := csrf.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, first, second)

	require.NoError(t, csrf.VerifyToken(context.Background(), sess, first))
	require.ErrorIs(t, csrf.VerifyToken(context.Background(), sess, "forged"), shared.ErrCSRFTokenMismatch)
}
