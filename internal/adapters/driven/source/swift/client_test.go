package swift

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/metasync/internal/core/domain"
)

type fakeProxy struct {
	mu       sync.Mutex
	auths    int
	heads    []*http.Request
	token    string
	status   int
	objectFn func(w http.ResponseWriter, r *http.Request)
}

func newFakeProxy(t *testing.T) (*fakeProxy, *httptest.Server) {
	t.Helper()
	fp := &fakeProxy{token: "tok-1", status: http.StatusOK}

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp.mu.Lock()
		defer fp.mu.Unlock()

		if r.URL.Path == "/auth/v1.0" {
			fp.auths++
			if r.Header.Get("X-Auth-User") != "test:tester" || r.Header.Get("X-Auth-Key") != "testing" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.Header().Set("X-Storage-Url", srv.URL+"/v1/AUTH_test")
			w.Header().Set("X-Auth-Token", fp.token)
			w.WriteHeader(http.StatusOK)
			return
		}

		fp.heads = append(fp.heads, r.Clone(context.Background()))
		if r.Header.Get("X-Auth-Token") != fp.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if fp.objectFn != nil {
			fp.objectFn(w, r)
			return
		}
		w.Header().Set("Content-Length", "1024")
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Etag", "d41d8cd98f00b204e9800998ecf8427e")
		w.Header().Set("Last-Modified", "Wed, 14 Oct 2026 09:30:00 GMT")
		w.Header().Set("X-Timestamp", "1791970200.12345")
		w.Header().Set("X-Object-Meta-Color", "blue")
		w.WriteHeader(fp.status)
	}))
	t.Cleanup(srv.Close)
	return fp, srv
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{AuthURL: "http://proxy/auth/v1.0"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = New(Config{StorageURL: "http://proxy/v1/AUTH_a"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClient_ObjectMetadata(t *testing.T) {
	fp, srv := newFakeProxy(t)
	client, err := New(Config{AuthURL: srv.URL + "/auth/v1.0", User: "test:tester", Key: "testing"})
	require.NoError(t, err)

	meta, err := client.ObjectMetadata(context.Background(), "AUTH_test", "photos", "2026/a b.jpg", true)
	require.NoError(t, err)

	assert.Equal(t, "1024", meta["content-length"])
	assert.Equal(t, "application/octet-stream", meta["content-type"])
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", meta["etag"])
	assert.Equal(t, "1791970200.12345", meta["x-timestamp"])
	assert.Equal(t, "blue", meta["x-object-meta-color"])

	require.Len(t, fp.heads, 1)
	head := fp.heads[0]
	assert.Equal(t, http.MethodHead, head.Method)
	assert.Equal(t, "/v1/AUTH_test/photos/2026/a b.jpg", head.URL.Path)
	assert.Equal(t, "true", head.Header.Get("X-Newest"))
	assert.NotEmpty(t, head.Header.Get("X-Trans-Id-Extra"))
	assert.Equal(t, 1, fp.auths)

	_, err = client.ObjectMetadata(context.Background(), "AUTH_test", "photos", "b", false)
	require.NoError(t, err)
	assert.Equal(t, 1, fp.auths, "token is reused")
	assert.Empty(t, fp.heads[1].Header.Get("X-Newest"))
}

func TestClient_ReplacesAccount(t *testing.T) {
	fp, srv := newFakeProxy(t)
	client, err := New(Config{StorageURL: srv.URL + "/v1/AUTH_test", Token: "tok-1"})
	require.NoError(t, err)

	_, err = client.ObjectMetadata(context.Background(), "AUTH_other", "c", "o", false)
	require.NoError(t, err)
	require.Len(t, fp.heads, 1)
	assert.Equal(t, "/v1/AUTH_other/c/o", fp.heads[0].URL.Path)
	assert.Zero(t, fp.auths)
}

func TestClient_ReauthenticatesOnce(t *testing.T) {
	fp, srv := newFakeProxy(t)
	client, err := New(Config{AuthURL: srv.URL + "/auth/v1.0", User: "test:tester", Key: "testing"})
	require.NoError(t, err)

	_, err = client.ObjectMetadata(context.Background(), "AUTH_test", "c", "o", false)
	require.NoError(t, err)

	fp.mu.Lock()
	fp.token = "tok-2"
	fp.mu.Unlock()

	_, err = client.ObjectMetadata(context.Background(), "AUTH_test", "c", "o", false)
	require.NoError(t, err)
	assert.Equal(t, 2, fp.auths)
	assert.Len(t, fp.heads, 3)
}

func TestClient_UnauthorizedToken(t *testing.T) {
	_, srv := newFakeProxy(t)
	client, err := New(Config{StorageURL: srv.URL + "/v1/AUTH_test", Token: "expired"})
	require.NoError(t, err)

	_, err = client.ObjectMetadata(context.Background(), "AUTH_test", "c", "o", false)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_BadCredentials(t *testing.T) {
	_, srv := newFakeProxy(t)
	client, err := New(Config{AuthURL: srv.URL + "/auth/v1.0", User: "test:tester", Key: "wrong"})
	require.NoError(t, err)

	_, err = client.ObjectMetadata(context.Background(), "AUTH_test", "c", "o", false)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{statusRatelimit, domain.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			fp, srv := newFakeProxy(t)
			fp.status = tt.status
			client, err := New(Config{StorageURL: srv.URL + "/v1/AUTH_test", Token: "tok-1"})
			require.NoError(t, err)

			_, err = client.ObjectMetadata(context.Background(), "AUTH_test", "c", "o", false)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_ServerError(t *testing.T) {
	fp, srv := newFakeProxy(t)
	fp.status = http.StatusServiceUnavailable
	client, err := New(Config{StorageURL: srv.URL + "/v1/AUTH_test", Token: "tok-1"})
	require.NoError(t, err)

	_, err = client.ObjectMetadata(context.Background(), "AUTH_test", "c", "o", false)
	assert.EqualError(t, err, "head AUTH_test/c/o: status 503")
}

func TestClient_RequiresObjectName(t *testing.T) {
	client, err := New(Config{StorageURL: "http://proxy/v1/AUTH_a", Token: "tok-1"})
	require.NoError(t, err)

	_, err = client.ObjectMetadata(context.Background(), "AUTH_a", "c", "", false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClient_EscapesObjectNames(t *testing.T) {
	fp, srv := newFakeProxy(t)
	client, err := New(Config{StorageURL: srv.URL + "/v1/AUTH_test", Token: "tok-1"})
	require.NoError(t, err)

	_, err = client.ObjectMetadata(context.Background(), "AUTH_test", "my c", "100% ü?.txt", false)
	require.NoError(t, err)
	require.Len(t, fp.heads, 1)
	assert.Equal(t, "/v1/AUTH_test/my c/100% ü?.txt", fp.heads[0].URL.Path)
	assert.Empty(t, fp.heads[0].URL.RawQuery)
}

func TestAccountURL(t *testing.T) {
	tests := []struct {
		name       string
		storageURL string
		account    string
		want       string
	}{
		{"same account", "http://h:8080/v1/AUTH_a", "AUTH_a", "http://h:8080/v1/AUTH_a"},
		{"other account", "http://h:8080/v1/AUTH_a", "AUTH_b", "http://h:8080/v1/AUTH_b"},
		{"keep account", "http://h:8080/v1/AUTH_a/", "", "http://h:8080/v1/AUTH_a"},
		{"drops query", "http://h/v1/AUTH_a?x=1", "AUTH_a", "http://h/v1/AUTH_a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AccountURL(tt.storageURL, tt.account)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := AccountURL("http://h/%zz", "AUTH_a")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
