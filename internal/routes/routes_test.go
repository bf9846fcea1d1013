package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cartstore/internal/database/memory"
	carthandler "cartstore/internal/handlers/cart"
	"cartstore/internal/routes"
	cartservice "cartstore/internal/service/cart"
	"cartstore/internal/view"
	"cartstore/pkg/lib/logger/slogdiscard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "cart_session"

func newTestServer(t *testing.T, staticDir string) (*httptest.Server, *memory.Storage) {
	t.Helper()

	logger := slogdiscard.NewDiscardLogger()
	storage := memory.New()

	renderer, err := view.New("checkout.html")
	require.NoError(t, err)

	handler := carthandler.New(logger, cartservice.New(logger, storage), renderer)
	srv := httptest.NewServer(routes.New(logger, handler, cookieName, staticDir).Register())
	t.Cleanup(srv.Close)

	return srv, storage
}

func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func get(t *testing.T, client *http.Client, target string) (int, string) {
	t.Helper()

	resp, err := client.Get(target)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func postForm(t *testing.T, client *http.Client, target string, values url.Values) *http.Response {
	t.Helper()

	resp, err := client.PostForm(target, values)
	require.NoError(t, err)
	resp.Body.Close()

	return resp
}

func TestRoutes_Healthz(t *testing.T) {
	srv, _ := newTestServer(t, "")

	status, body := get(t, newClient(t), srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body)
}

func TestRoutes_SessionCookieIssued(t *testing.T) {
	srv, _ := newTestServer(t, "")
	client := newClient(t)

	status, body := get(t, client, srv.URL+"/cart/count")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, `<span class="cart-count">0</span>`, body)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	cookies := client.Jar.Cookies(u)
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
}

func TestRoutes_ShoppingFlow(t *testing.T) {
	srv, _ := newTestServer(t, "")
	client := newClient(t)

	status, body := get(t, client, srv.URL+"/cart")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `<div id="empty-cart">`)
	assert.Contains(t, body, `<div id="cart-items" style="display: none;">`)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/cart/items", strings.NewReader(url.Values{
		"name":  {"Wireless Mouse"},
		"price": {"Price: $49.99"},
		"image": {"/img/mouse.jpg"},
	}.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", srv.URL+"/products?page=2")

	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/products?page=2", resp.Header.Get("Location"))

	resp = postForm(t, client, srv.URL+"/cart/items/wireless-mouse/increment", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/cart", resp.Header.Get("Location"))

	_, body = get(t, client, srv.URL+"/cart/count")
	assert.Equal(t, `<span class="cart-count">2</span>`, body)

	postForm(t, client, srv.URL+"/cart/items/wireless-mouse/quantity", url.Values{"quantity": {"3"}})
	postForm(t, client, srv.URL+"/cart/items/wireless-mouse/quantity", url.Values{"quantity": {"abc"}})

	status, body = get(t, client, srv.URL+"/cart")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `value="3"`)
	assert.Contains(t, body, "$149.97")
	assert.Contains(t, body, "$15.00")
	assert.Contains(t, body, "$164.97")
	assert.Contains(t, body, `<div id="empty-cart" style="display: none;">`)

	postForm(t, client, srv.URL+"/cart/items/wireless-mouse/remove", nil)

	_, body = get(t, client, srv.URL+"/cart/count")
	assert.Equal(t, `<span class="cart-count">0</span>`, body)
}

func TestRoutes_JSONAPI(t *testing.T) {
	srv, _ := newTestServer(t, "")
	client := newClient(t)

	resp, err := client.Post(srv.URL+"/cart/items", "application/json",
		bytes.NewBufferString(`{"name":"USB Cable","price":10.5,"image":"/img/usb.jpg"}`))
	require.NoError(t, err)

	var added carthandler.AddResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&added))
	resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "usb-cable", added.Item.ID)
	assert.Equal(t, 1, added.Count)
	assert.Equal(t, "USB Cable has been added to your cart!", added.Message)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/cart/items/usb-cable", bytes.NewBufferString(`{"quantity":4}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	status, body := get(t, client, srv.URL+"/api/cart")
	require.Equal(t, http.StatusOK, status)

	var cart carthandler.CartResponse
	require.NoError(t, json.Unmarshal([]byte(body), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Count)
	assert.Equal(t, "42.00", cart.Summary.Subtotal.StringFixed(2))

	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/api/cart/items/usb-cable", nil)
	require.NoError(t, err)

	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body = get(t, client, srv.URL+"/api/cart")
	assert.Contains(t, body, `"items":[]`)
}

func TestRoutes_QuantityStaysInRange(t *testing.T) {
	srv, _ := newTestServer(t, "")
	client := newClient(t)

	resp, err := client.Post(srv.URL+"/cart/items", "application/json",
		bytes.NewBufferString(`{"id":"sku-1","name":"Smart Phone","price":300}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	postForm(t, client, srv.URL+"/cart/items/smart-phone/quantity", url.Values{"quantity": {"9223372036854775807"}})
	postForm(t, client, srv.URL+"/cart/items/smart-phone/quantity", url.Values{"quantity": {"9999"}})

	resp = postForm(t, client, srv.URL+"/cart/items/smart-phone/increment", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	status, body := get(t, client, srv.URL+"/api/cart")
	require.Equal(t, http.StatusOK, status)

	var cart carthandler.CartResponse
	require.NoError(t, json.Unmarshal([]byte(body), &cart))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "smart-phone", cart.Items[0].ID)
	assert.Equal(t, 9999, cart.Items[0].Quantity)
}

func TestRoutes_SessionsAreIsolated(t *testing.T) {
	srv, storage := newTestServer(t, "")
	alice, bob := newClient(t), newClient(t)

	postForm(t, alice, srv.URL+"/cart/buy-now", url.Values{
		"name":  {"Smart Watch"},
		"price": {"$199.99"},
	})

	_, body := get(t, alice, srv.URL+"/cart/count")
	assert.Equal(t, `<span class="cart-count">1</span>`, body)

	_, body = get(t, bob, srv.URL+"/cart/count")
	assert.Equal(t, `<span class="cart-count">0</span>`, body)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	owner := alice.Jar.Cookies(u)[0].Value

	raw, err := storage.Get(context.Background(), cartservice.DefaultKey+":"+owner)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"id":"smart-watch"`)
}

func TestRoutes_StaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkout.html"), []byte("checkout"), 0o644))

	srv, _ := newTestServer(t, dir)

	status, body := get(t, newClient(t), srv.URL+"/checkout.html")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "checkout", body)

	status, _ = get(t, newClient(t), srv.URL+"/missing.html")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRoutes_UnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, "")

	status, _ := get(t, newClient(t), srv.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, status)
}
