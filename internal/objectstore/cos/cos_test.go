package cos

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/islandlife/internal/domain"
	"github.com/vbonduro/islandlife/internal/objectstore"
)

const noSuchKey = `<?xml version='1.0' encoding='utf-8' ?>
<Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`

// fakeBucket answers PUT and GET object requests from memory.
type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	auth    []string
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (b *fakeBucket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.auth = append(b.auth, r.Header.Get("Authorization"))

	key := r.URL.Path[1:]
	switch r.Method {
	case http.MethodPut:
		data, _ := io.ReadAll(r.Body)
		b.objects[key] = data
		b.types[key] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		data, ok := b.objects[key]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(noSuchKey))
			return
		}
		_, _ = w.Write(data)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestStore(t *testing.T, h http.Handler) *COSObjectStore {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	s := newWithBucketURL(u, "AKIDtest", "secret")
	s.client.Conf.EnableCRC = false
	return s
}

func TestCOSPutAndGet(t *testing.T) {
	bucket := newFakeBucket()
	store := newTestStore(t, bucket)
	ctx := context.Background()

	err := store.Put(ctx, "island_life/user_data.json", "application/json", bytes.NewReader([]byte(`{"a":1}`)))
	require.NoError(t, err)

	assert.Equal(t, "application/json", bucket.types["island_life/user_data.json"])
	assert.NotEmpty(t, bucket.auth[0])

	rc, err := store.Get(ctx, "island_life/user_data.json")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestCOSGetNotFound(t *testing.T) {
	store := newTestStore(t, newFakeBucket())

	_, err := store.Get(context.Background(), "island_life/user_data.json")
	assert.ErrorIs(t, err, objectstore.ErrNotFound)
}

func TestCOSGetAuthError(t *testing.T) {
	store := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<Error><Code>AccessDenied</Code></Error>`))
	}))

	_, err := store.Get(context.Background(), "island_life/user_data.json")
	require.Error(t, err)
	assert.NotErrorIs(t, err, objectstore.ErrNotFound)
}

func TestNewCOSObjectStoreCanonicalURL(t *testing.T) {
	store, err := NewCOSObjectStore(domain.RemoteConfig{
		AccessID: "id", AccessSecret: "secret", BucketName: "pets-1250000000", Region: "ap-guangzhou",
	})
	require.NoError(t, err)

	assert.Equal(t,
		"https://pets-1250000000.cos.ap-guangzhou.myqcloud.com/island_life/images/1_ab_cat.jpg",
		store.URL("island_life/images/1_ab_cat.jpg"))
}

func TestNewCOSObjectStoreIncomplete(t *testing.T) {
	_, err := NewCOSObjectStore(domain.RemoteConfig{AccessID: "id"})
	assert.Error(t, err)
}
