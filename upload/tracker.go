package upload

import (
	"time"

	"github.com/bitrise-io/go-utils/v2/analytics"
	"github.com/bitrise-io/go-utils/v2/log"
)

type uploadTracker struct {
	tracker analytics.Tracker
	logger  log.Logger
}

func newUploadTracker(tracker analytics.Tracker, logger log.Logger) uploadTracker {
	return uploadTracker{
		tracker: tracker,
		logger:  logger,
	}
}

func (t *uploadTracker) logUploadStarted(fingerprint string, fileSize, chunkSize int64, resumed bool) {
	if t.tracker == nil {
		return
	}
	properties := analytics.Properties{
		"fingerprint":      fingerprint,
		"file_size_bytes":  fileSize,
		"chunk_size_bytes": chunkSize,
		"resumed":          resumed,
	}
	t.tracker.Enqueue("video_upload_started", properties)
}

func (t *uploadTracker) logUploadCompleted(uploadTime time.Duration, fileSize int64) {
	if t.tracker == nil {
		return
	}
	properties := analytics.Properties{
		"upload_time_s":   uploadTime.Truncate(time.Second).Seconds(),
		"file_size_bytes": fileSize,
	}
	t.tracker.Enqueue("video_upload_completed", properties)
}

func (t *uploadTracker) logUploadPaused(uploadedBytes, fileSize int64) {
	if t.tracker == nil {
		return
	}
	properties := analytics.Properties{
		"uploaded_bytes":  uploadedBytes,
		"file_size_bytes": fileSize,
	}
	t.tracker.Enqueue("video_upload_paused", properties)
}

func (t *uploadTracker) wait() {
	if t.tracker == nil {
		return
	}
	t.tracker.Wait()
}
