package capture

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestSnapshotSource_Capture(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantFrame bool
	}{
		{
			name: "decodes a jpeg snapshot",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write(testJPEG(t, 64, 48))
			},
			wantFrame: true,
		},
		{
			name: "camera error is a transient miss",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantFrame: false,
		},
		{
			name: "corrupt payload is a transient miss",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte("not an image"))
			},
			wantFrame: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			source := NewSnapshotSource(server.URL, time.Second)
			require.NoError(t, source.Open())
			defer func() { _ = source.Close() }()

			frame, err := source.Capture(context.Background())

			require.NoError(t, err)
			if tt.wantFrame {
				require.NotNil(t, frame)
				assert.Equal(t, 64, frame.Bounds().Dx())
				assert.Equal(t, 48, frame.Bounds().Dy())
			} else {
				assert.Nil(t, frame)
			}
		})
	}
}

func TestSnapshotSource_Lifecycle(t *testing.T) {
	source := NewSnapshotSource("http://localhost:0/snapshot", time.Second)

	// Capture before Open is a contract violation
	_, err := source.Capture(context.Background())
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, source.Open())
	assert.Error(t, source.Open(), "double open must fail")

	require.NoError(t, source.Close())
	require.NoError(t, source.Open(), "reopen after close must succeed")
	require.NoError(t, source.Close())
}

func TestSnapshotSource_UnreachableCamera(t *testing.T) {
	// Closed port: the request fails at the transport level.
	source := NewSnapshotSource("http://127.0.0.1:1/snapshot", 500*time.Millisecond)
	require.NoError(t, source.Open())
	defer func() { _ = source.Close() }()

	frame, err := source.Capture(context.Background())
	require.NoError(t, err)
	assert.Nil(t, frame, "unreachable camera yields no frame, no error")
}
