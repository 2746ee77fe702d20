package upload

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompletedUploader(t *testing.T, handler http.HandlerFunc) *Uploader {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := DefaultConfig(server.URL, "test-token")
	config.PollInterval = 0
	config.PollAttempts = 5

	uploader, err := NewUploader(config, UploadParams{FilePath: "/tmp/clip.mp4"}, &fakeSource{data: []byte("x")}, nil, log.NewLogger())
	require.NoError(t, err)

	uploader.mu.Lock()
	uploader.sess.videoURI = "/videos/42"
	uploader.phase = phaseCompleted
	uploader.mu.Unlock()
	return uploader
}

func TestWaitForPlaybackLink_pollsUntilAvailable(t *testing.T) {
	var calls int32
	uploader := newCompletedUploader(t, func(w http.ResponseWriter, r *http.Request) {
		count := atomic.AddInt32(&calls, 1)
		if count < 3 {
			_, _ = fmt.Fprint(w, `{"status":"transcoding","files":[]}`)
			return
		}
		_, _ = fmt.Fprint(w, `{"status":"available","files":[{"quality":"hd","link":"https://l/hd"},{"quality":"hls","link":"https://l/hls"}]}`)
	})

	link, err := uploader.WaitForPlaybackLink(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://l/hls", link)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.False(t, uploader.IsProcessing())
}

func TestWaitForPlaybackLink_boundedAttempts(t *testing.T) {
	var calls int32
	uploader := newCompletedUploader(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = fmt.Fprint(w, `{"status":"transcoding","files":[]}`)
	})

	_, err := uploader.WaitForPlaybackLink(context.Background())
	require.Error(t, err)
	// retry.Times(5) means one initial attempt plus five retries.
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(6))
	assert.True(t, uploader.IsProcessing())
}

func TestWaitForPlaybackLink_noHLSVariant(t *testing.T) {
	uploader := newCompletedUploader(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, `{"status":"available","files":[{"quality":"hd","link":"https://l/hd"}]}`)
	})

	_, err := uploader.WaitForPlaybackLink(context.Background())
	require.Error(t, err)

	protocolErr, ok := err.(*ProtocolError)
	require.True(t, ok)
	assert.Contains(t, protocolErr.Description, "hls")
}

func TestPostProcessing_requiresSession(t *testing.T) {
	uploader, err := NewUploader(DefaultConfig("https://api", "t"), UploadParams{FilePath: "/tmp/clip.mp4"}, &fakeSource{data: []byte("x")}, nil, log.NewLogger())
	require.NoError(t, err)

	assert.Error(t, uploader.DeleteVideo(context.Background()))

	_, err = uploader.MoveToFolder(context.Background(), "77")
	assert.Error(t, err)

	_, err = uploader.WaitForPlaybackLink(context.Background())
	assert.Error(t, err)
}

func TestDeleteVideo_forCompletedSession(t *testing.T) {
	var deleted int32
	uploader := newCompletedUploader(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && r.URL.Path == "/videos/42" {
			atomic.AddInt32(&deleted, 1)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	require.NoError(t, uploader.DeleteVideo(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&deleted))
}
