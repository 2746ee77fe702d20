package upload

import (
	"context"
	"fmt"

	"github.com/bitrise-io/go-utils/retry"
)

// DeleteVideo removes the remote video created by this session. It is only
// available after the session has been created on this Uploader; sessions
// resumed from the store carry no video URI.
func (u *Uploader) DeleteVideo(ctx context.Context) error {
	videoID, err := u.videoIDForSession()
	if err != nil {
		return err
	}
	return u.api.deleteVideo(ctx, videoID)
}

// MoveToFolder files the uploaded video under the given folder and reports
// whether the move was performed.
func (u *Uploader) MoveToFolder(ctx context.Context, folderID string) (bool, error) {
	videoID, err := u.videoIDForSession()
	if err != nil {
		return false, err
	}
	return u.api.moveToFolder(ctx, folderID, videoID)
}

// WaitForPlaybackLink polls the video status until the remote service
// reports it available, then returns the playback link of the HLS variant.
// Polling is bounded by Config.PollAttempts and Config.PollInterval; callers
// needing earlier cancellation pass a context with a deadline.
func (u *Uploader) WaitForPlaybackLink(ctx context.Context) (string, error) {
	videoID, err := u.videoIDForSession()
	if err != nil {
		return "", err
	}

	var link string
	err = retry.Times(u.config.pollAttempts()).Wait(u.config.PollInterval).TryWithAbort(func(attempt uint) (error, bool) {
		if err := ctx.Err(); err != nil {
			return err, true
		}

		status, err := u.api.videoStatus(ctx, videoID)
		if err != nil {
			return err, true
		}

		if status.Status != statusAvailable {
			u.setProcessing(true)
			u.logger.Debugf("Video %s not available yet (status: %s), attempt %d", videoID, status.Status, attempt+1)
			return fmt.Errorf("video not available yet, status: %s", status.Status), false
		}

		for _, file := range status.Files {
			if file.Quality == qualityHLS {
				link = file.Link
				return nil, false
			}
		}
		return newProtocolError("video is available but carries no %s variant", qualityHLS), true
	})
	if err != nil {
		return "", err
	}
	u.setProcessing(false)
	return link, nil
}

// IsProcessing reports whether the last playback-link poll found the video
// still transcoding.
func (u *Uploader) IsProcessing() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.processing
}

func (u *Uploader) setProcessing(processing bool) {
	u.mu.Lock()
	u.processing = processing
	u.mu.Unlock()
}

func (u *Uploader) videoIDForSession() (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.sess.videoURI == "" {
		return "", fmt.Errorf("no video resource for this session")
	}
	return u.sess.videoID(), nil
}
