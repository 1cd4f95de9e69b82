package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	InitStore("test-secret-key-12345678901234567890123456789012", false)
}

// replay copies the cookies set on w into a fresh request, like a browser.
func replay(w *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest("GET", "/", nil)
	for _, c := range w.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestSessionManagement(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, "", GetUsername(r))

	require.NoError(t, SetUsername(w, r, "alice"))

	r2 := replay(w)
	assert.Equal(t, "alice", GetUsername(r2))

	w2 := httptest.NewRecorder()
	require.NoError(t, ClearUsername(w2, r2))
	assert.Equal(t, "", GetUsername(replay(w2)))

	// Clearing twice is harmless.
	w3 := httptest.NewRecorder()
	require.NoError(t, ClearUsername(w3, replay(w2)))
	assert.Equal(t, "", GetUsername(replay(w3)))
}

func TestTamperedCookieIsAnonymous(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.AddCookie(&http.Cookie{Name: SessionName, Value: "forged"})
	assert.Equal(t, "", GetUsername(r))
}

func TestFlashesAreOneShot(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/", nil)
	require.NoError(t, AddFlash(w, r, "error", "InvalidCredentials"))

	r2 := replay(w)
	w2 := httptest.NewRecorder()
	flashes := Flashes(w2, r2)
	require.Len(t, flashes, 1)
	assert.Equal(t, Flash{Category: "error", Message: "InvalidCredentials"}, flashes[0])

	assert.Empty(t, Flashes(httptest.NewRecorder(), replay(w2)))
}

func TestRequireLogin(t *testing.T) {
	var seen string
	guarded := RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFrom(r.Context())
	}))

	t.Run("anonymous is redirected", func(t *testing.T) {
		w := httptest.NewRecorder()
		guarded.ServeHTTP(w, httptest.NewRequest("GET", "/alice/add_wishlist", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
		assert.Empty(t, seen)

		flashes := Flashes(httptest.NewRecorder(), replay(w))
		require.Len(t, flashes, 1)
		assert.Equal(t, "AccessDeniedLogin", flashes[0].Message)
	})

	t.Run("logged in passes through", func(t *testing.T) {
		login := httptest.NewRecorder()
		require.NoError(t, SetUsername(login, httptest.NewRequest("GET", "/", nil), "alice"))

		w := httptest.NewRecorder()
		guarded.ServeHTTP(w, replay(login))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alice", seen)
	})
}
