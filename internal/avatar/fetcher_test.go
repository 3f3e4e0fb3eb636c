package avatar

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/watchfire-io/nearby/internal/presence"
	"github.com/watchfire-io/nearby/internal/surface"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFetchScalesToBoundingBox(t *testing.T) {
	body := pngBytes(t, 200, 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	f, err := NewFetcher(time.Second, 4, nil)
	require.NoError(t, err)

	data, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())
}

func TestFetchFailuresDegradeToNoImage(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("definitely not an image"))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			f, err := NewFetcher(200*time.Millisecond, 4, nil)
			require.NoError(t, err)

			data, err := f.Fetch(context.Background(), srv.URL)
			assert.Error(t, err)
			assert.Nil(t, data)
		})
	}
}

func TestPrefetchCachesAndNotifies(t *testing.T) {
	body := pngBytes(t, 10, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	ready := make(chan string, 1)
	f, err := NewFetcher(time.Second, 4, func(url string) { ready <- url })
	require.NoError(t, err)

	_, ok := f.Lookup(srv.URL)
	assert.False(t, ok)

	f.Prefetch(srv.URL)

	select {
	case url := <-ready:
		assert.Equal(t, srv.URL, url)
	case <-time.After(5 * time.Second):
		t.Fatal("prefetch did not complete")
	}

	data, ok := f.Lookup(srv.URL)
	require.True(t, ok)
	assert.NotEmpty(t, data)

	spec := surface.NotificationSpec{}
	require.NoError(t, f.Decorate(&spec, presence.State{AvatarURL: srv.URL}))
	assert.Equal(t, data, spec.LargeIcon)
}

func TestDecorateWithoutAvatar(t *testing.T) {
	f, err := NewFetcher(0, 0, nil)
	require.NoError(t, err)

	spec := surface.NotificationSpec{}
	require.NoError(t, f.Decorate(&spec, presence.State{AvatarURL: "http://127.0.0.1:1/missing.png"}))
	assert.Nil(t, spec.LargeIcon)

	f.Prefetch("")
	_, ok := f.Lookup("")
	assert.False(t, ok)
}
