package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wishlist/wishlist"
)

var csrfFieldRE = regexp.MustCompile(`name="gorilla.csrf.Token" value="([^"]+)"`)

// formToken loads path and returns the CSRF token embedded in its form.
func (b *browser) formToken(path string) string {
	b.t.Helper()
	resp, body := b.get(path)
	require.Equal(b.t, http.StatusOK, resp.StatusCode, path)
	m := csrfFieldRE.FindStringSubmatch(body)
	require.NotNil(b.t, m, "no csrf field on %s", path)
	return m[1]
}

func (b *browser) submit(formPath, action string, form url.Values) *http.Response {
	b.t.Helper()
	form.Set("gorilla.csrf.Token", b.formToken(formPath))
	resp, _ := b.post(action, form)
	return resp
}

func TestServedAppFlow(t *testing.T) {
	app := newServedApp(t)
	owner := app.browser(t)

	resp := owner.submit("/signup", "/signup", url.Values{"username": {"alice"}, "password": {"password1"}})
	require.Equal(t, "/login", resp.Header.Get("Location"))

	resp = owner.submit("/login", "/login", url.Values{"username": {"alice"}, "password": {"password1"}})
	require.Equal(t, "/alice", resp.Header.Get("Location"))

	resp = owner.submit("/alice/add_wishlist", "/alice/add_wishlist", url.Values{"name": {"Birthday"}})
	require.Equal(t, "/alice", resp.Header.Get("Location"))

	lists, err := app.store.FindLists(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, lists, 1)
	l := lists[0]

	// Multipart forms carry the token as a regular part.
	addPath := "/wishlist/" + l.ID + "/add_item"
	body, contentType := multipartItem(t, map[string]string{
		"name":               "Lamp",
		"gorilla.csrf.Token": owner.formToken(addPath),
	}, "lamp.png", []byte("png-bytes"))
	req, err := http.NewRequest(http.MethodPost, app.srv.URL+addPath, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", contentType)
	resp, _ = owner.do(req)
	require.Equal(t, "/wishlist/"+l.ID, resp.Header.Get("Location"))

	items, err := app.store.FindItems(context.Background(), l.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, strings.HasSuffix(items[0].PhotoURL, ".png"))

	guest := app.browser(t)
	viewPath := "/view/" + l.PublicID
	resp = guest.submit(viewPath, "/view/mark_purchased/"+items[0].ID, url.Values{
		"public_id": {l.PublicID}, "return": {"1"},
	})
	assert.Equal(t, viewPath, resp.Header.Get("Location"))

	got, err := app.store.FindItem(context.Background(), items[0].ID)
	require.NoError(t, err)
	assert.True(t, got.Purchased)
}

func TestServedAppRejectsMissingToken(t *testing.T) {
	app := newServedApp(t)
	app.signup(t, "alice")
	b := app.browser(t)

	resp, _ := b.post("/login", url.Values{"username": {"alice"}, "password": {"password1"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = b.submit("/login", "/login", url.Values{"username": {"alice"}, "password": {"password1"}})
	require.Equal(t, "/alice", resp.Header.Get("Location"))

	resp, _ = b.post("/alice/add_wishlist", url.Values{"name": {"Birthday"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = b.post("/alice/add_wishlist", url.Values{"name": {"Birthday"}, "gorilla.csrf.Token": {"forged"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	lists, err := app.store.FindLists(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, lists)
}

func TestServedAppMarkPurchasedWithoutToken(t *testing.T) {
	app := newServedApp(t)
	app.signup(t, "alice")
	l := app.wishlist(t, "alice", "Birthday")
	other := app.wishlist(t, "alice", "Christmas")
	it := app.item(t, l, "Book")
	b := app.browser(t)

	resp, body := b.post("/view/mark_purchased/"+it.ID, url.Values{"public_id": {l.PublicID}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Item marked as purchased", body)

	resp, _ = b.post("/view/mark_purchased/"+it.ID, url.Values{"public_id": {other.PublicID}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServedAppLimitsUploadSize(t *testing.T) {
	app := newServedApp(t, func(o *Options) { o.MaxUploadBytes = 1024 })
	app.signup(t, "alice")
	l := app.wishlist(t, "alice", "Birthday")

	path := "/wishlist/" + l.ID + "/add_item"
	body, contentType := multipartItem(t, map[string]string{"name": "Poster"}, "poster.png", bytes.Repeat([]byte{0xff}, 64<<10))
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, path, w.Header().Get("Location"))

	items, err := app.store.FindItems(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestServedAppHidesUploadListing(t *testing.T) {
	app := newServedApp(t)
	app.signup(t, "alice")
	l := app.wishlist(t, "alice", "Birthday")
	it, err := app.items.Add(context.Background(), "alice", l.ID, wishlist.ItemInput{Name: "Lamp"},
		&wishlist.Photo{Filename: "lamp.png", Body: strings.NewReader("png-bytes")})
	require.NoError(t, err)
	b := app.browser(t)

	resp, photo := b.get(it.PhotoURL)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png-bytes", photo)

	resp, listing := b.get("/uploads/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotContains(t, listing, ".png")
}
