// Package upload drives resumable chunked video uploads: it negotiates or
// resumes an upload session, reconciles byte offsets with the server, and
// streams the file in bounded chunks until the server confirms every byte.
package upload

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bitrise-io/go-utils/v2/analytics"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/retryhttp"
	"github.com/docker/go-units"

	"github.com/clipforge/go-vimeoupload/filesource"
	"github.com/clipforge/go-vimeoupload/fingerprint"
	"github.com/clipforge/go-vimeoupload/sessionstore"
)

// ProgressFunc receives the fraction of the file confirmed by the server,
// as a percentage.
type ProgressFunc func(percent float64)

// CompletionFunc fires exactly once, when the server has confirmed the full
// file length. videoURI is empty for sessions resumed from the store, since
// only the creation response carries it.
type CompletionFunc func(videoURI string)

// UploadParams is the per-upload input.
type UploadParams struct {
	// FilePath is the local file to upload; its fingerprint is the resume key.
	FilePath string
	// CreateBody is the caller-supplied JSON body for the session-creation
	// request (upload approach, size, metadata).
	CreateBody []byte
	// CreateHeaders are extra headers for the session-creation request.
	CreateHeaders map[string]string
}

// Uploader runs one upload session at a time. Upload, Resume and Pause calls
// for the same file must be serialized by the caller; only Pause may be
// invoked while an Upload is in flight.
type Uploader struct {
	config  Config
	params  UploadParams
	source  filesource.Source
	store   sessionstore.Store
	logger  log.Logger
	api     apiClient
	tus     tusClient
	tracker uploadTracker

	onProgress   ProgressFunc
	onCompletion CompletionFunc

	mu             sync.Mutex
	phase          phase
	sess           session
	paused         bool
	processing     bool
	cancelInFlight context.CancelFunc
}

// NewUploader creates an Uploader for one local file. store may be nil, in
// which case resuming is disabled and every Upload negotiates a fresh
// session.
func NewUploader(config Config, params UploadParams, source filesource.Source, store sessionstore.Store, logger log.Logger) (*Uploader, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if params.FilePath == "" {
		return nil, fmt.Errorf("file path is empty")
	}
	if source == nil {
		return nil, fmt.Errorf("file source is nil")
	}

	retryableHTTPClient := retryhttp.NewClient(logger)

	return &Uploader{
		config: config,
		params: params,
		source: source,
		store:  store,
		logger: logger,
		api:    newAPIClient(retryableHTTPClient, config.APIBaseURL, config.AccessToken, logger),
		tus:    newTusClient(nil, config.AccessToken),
		phase:  phaseIdle,
	}, nil
}

// OnProgress registers an optional progress observer. Must be called before
// Upload.
func (u *Uploader) OnProgress(fn ProgressFunc) {
	u.onProgress = fn
}

// OnComplete registers an optional completion observer. Must be called
// before Upload.
func (u *Uploader) OnComplete(fn CompletionFunc) {
	u.onCompletion = fn
}

// SetAnalyticsTracker enables upload event tracking. Must be called before
// Upload.
func (u *Uploader) SetAnalyticsTracker(tracker analytics.Tracker) {
	u.tracker = newUploadTracker(tracker, u.logger)
}

// State returns the current lifecycle phase, for logging and diagnostics.
func (u *Uploader) State() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.phase.String()
}

// Upload runs the full session: resume from the store when possible,
// otherwise create a new session, then sync the offset and stream chunks
// until the server has confirmed the whole file. On a ProtocolError the
// in-memory offset reflects the last confirmed value only, so Upload or
// Resume may be called again once the underlying condition is fixed.
// The exception is Pause, which destroys the session.
func (u *Uploader) Upload(ctx context.Context) error {
	fileSize, err := u.source.Size()
	if err != nil {
		return err
	}

	fp := fingerprint.Generate(u.params.FilePath)
	// The chunk size is derived from the measured file once per session.
	chunkSize := deriveChunkSize(fileSize)

	u.mu.Lock()
	if u.phase == phaseTransferring || u.phase == phaseCreating || u.phase == phaseResuming || u.phase == phaseOffsetSync {
		u.mu.Unlock()
		return fmt.Errorf("upload already in progress")
	}
	u.paused = false
	u.sess = session{
		fingerprint: fp,
		fileSize:    fileSize,
		chunkSize:   chunkSize,
	}
	u.mu.Unlock()

	resumed, err := u.adoptStoredSession(ctx, fp)
	if err != nil {
		return err
	}
	if !resumed {
		if err := u.createSession(ctx, fp); err != nil {
			return err
		}
	}

	u.tracker.logUploadStarted(fp, fileSize, chunkSize, resumed)
	defer u.tracker.wait()

	return u.transfer(ctx)
}

// Resume continues an interrupted session on this Uploader. It reports false
// when there is nothing to resume: no session was ever negotiated, or Pause
// wiped the session state.
func (u *Uploader) Resume(ctx context.Context) (bool, error) {
	u.mu.Lock()
	if u.sess.fingerprint == "" || u.sess.uploadURL == "" {
		u.mu.Unlock()
		return false, nil
	}
	u.paused = false
	u.mu.Unlock()

	return true, u.transfer(ctx)
}

// Pause abandons the upload. The in-flight chunk submission is cancelled
// without being awaited; the server may still apply it, so the remote
// resource is deleted and the stored resume mapping removed, both
// best-effort, and all session state is reset. Pause is a destructive
// cancel: a later Resume reports false, and a later Upload negotiates a
// fresh session.
func (u *Uploader) Pause(ctx context.Context) error {
	u.mu.Lock()
	u.paused = true
	if u.cancelInFlight != nil {
		u.cancelInFlight()
		u.cancelInFlight = nil
	}
	sess := u.sess
	u.sess = session{}
	u.phase = phasePaused
	u.mu.Unlock()

	u.tracker.logUploadPaused(sess.offset, sess.fileSize)

	if u.store != nil && sess.fingerprint != "" {
		if err := u.store.Remove(ctx, sess.fingerprint); err != nil {
			u.logger.Warnf("Failed to remove stored session after pause: %s", err)
		}
	}
	if sess.videoURI != "" {
		if err := u.api.deleteVideo(ctx, sess.videoID()); err != nil {
			u.logger.Warnf("Failed to delete remote video after pause: %s", err)
		}
	}
	return nil
}

// adoptStoredSession checks the session store for a previously negotiated
// upload URL for the fingerprint and adopts it when present.
func (u *Uploader) adoptStoredSession(ctx context.Context, fp string) (bool, error) {
	if u.store == nil {
		return false, nil
	}

	u.setPhase(phaseResuming)
	storedURL, found, err := u.store.Get(ctx, fp)
	if err != nil {
		return false, err
	}
	if !found || storedURL == "" {
		return false, nil
	}

	u.logger.Debugf("Resuming upload session for fingerprint %s", fp)
	u.mu.Lock()
	u.sess.uploadURL = storedURL
	u.mu.Unlock()
	return true, nil
}

// createSession negotiates a new upload session with the creation endpoint
// and persists the fingerprint to URL mapping for later resumes.
func (u *Uploader) createSession(ctx context.Context, fp string) error {
	u.setPhase(phaseCreating)

	resp, err := u.api.createVideo(ctx, u.params.CreateBody, u.params.CreateHeaders)
	if err != nil {
		return err
	}

	uploadURL, err := normalizeUploadURL(resp.Upload.UploadLink, u.config.APIBaseURL)
	if err != nil {
		return err
	}
	if uploadURL == "" {
		return newProtocolError("creation response carries no upload link")
	}

	u.mu.Lock()
	u.sess.uploadURL = uploadURL
	u.sess.videoURI = resp.URI
	u.mu.Unlock()

	if u.store != nil {
		if err := u.store.Set(ctx, fp, uploadURL); err != nil {
			return err
		}
	}

	u.logger.Debugf("Created upload session, video URI: %s", resp.URI)
	return nil
}

// transfer reconciles the offset with the server and streams chunks until
// completion or pause. The server-reported offset is adopted unconditionally
// as the starting point; after every chunk the echoed offset must match the
// expected position exactly or the transfer aborts.
func (u *Uploader) transfer(ctx context.Context) error {
	u.mu.Lock()
	sess := u.sess
	u.mu.Unlock()

	u.setPhase(phaseOffsetSync)
	offset, err := u.tus.fetchOffset(ctx, sess.uploadURL)
	if err != nil {
		return err
	}
	if offset > sess.fileSize {
		return newProtocolError("server offset %d exceeds file size %d", offset, sess.fileSize)
	}

	u.mu.Lock()
	u.sess.offset = offset
	u.mu.Unlock()

	u.logger.Debugf("Starting transfer at offset %d of %s", offset, units.HumanSize(float64(sess.fileSize)))
	u.setPhase(phaseTransferring)

	startedAt := time.Now()
	for offset < sess.fileSize {
		if u.isPaused() {
			return nil
		}

		confirmed, err := u.submitChunk(ctx, sess, offset)

		// The paused check and the offset write share one lock acquisition
		// so a concurrent Pause cannot reset the session between them and
		// have a stale offset written into the emptied state.
		u.mu.Lock()
		if u.paused {
			// The submission raced with Pause; its outcome is discarded.
			u.mu.Unlock()
			return nil
		}
		if err != nil {
			u.mu.Unlock()
			return err
		}
		u.sess.offset = confirmed
		u.mu.Unlock()

		offset = confirmed
		u.reportProgress(offset, sess.fileSize)
	}

	return u.complete(ctx, sess, time.Since(startedAt))
}

// submitChunk reads and submits one chunk starting at offset, holding the
// submission behind a cancellable context so Pause can orphan it.
func (u *Uploader) submitChunk(ctx context.Context, sess session, offset int64) (int64, error) {
	chunkEnd := offset + sess.chunkSize
	if chunkEnd > sess.fileSize {
		chunkEnd = sess.fileSize
	}

	chunk, err := u.source.OpenRange(offset, chunkEnd)
	if err != nil {
		return 0, err
	}
	defer chunk.Close() //nolint:errcheck

	chunkCtx, cancelChunk := context.WithCancel(ctx)
	u.mu.Lock()
	u.cancelInFlight = cancelChunk
	u.mu.Unlock()
	defer func() {
		cancelChunk()
		u.mu.Lock()
		u.cancelInFlight = nil
		u.mu.Unlock()
	}()

	u.logger.Debugf("Submitting chunk [%d, %d) of %d", offset, chunkEnd, sess.fileSize)
	return u.tus.patchChunk(chunkCtx, sess.uploadURL, offset, chunk, chunkEnd-offset)
}

// complete finishes the session: the resume key is dropped from the store
// and the completion observer fires exactly once.
func (u *Uploader) complete(ctx context.Context, sess session, took time.Duration) error {
	if u.store != nil {
		if err := u.store.Remove(ctx, sess.fingerprint); err != nil {
			return err
		}
	}

	u.setPhase(phaseCompleted)
	u.tracker.logUploadCompleted(took, sess.fileSize)
	u.logger.Donef("Uploaded %s in %s", units.HumanSize(float64(sess.fileSize)), took.Round(time.Second))

	if u.onCompletion != nil {
		u.onCompletion(sess.videoURI)
	}
	return nil
}

func (u *Uploader) reportProgress(offset, fileSize int64) {
	if u.onProgress == nil {
		return
	}
	percent := 100.0
	if fileSize > 0 {
		percent = float64(offset) / float64(fileSize) * 100
	}
	u.onProgress(percent)
}

func (u *Uploader) isPaused() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.paused
}

func (u *Uploader) setPhase(p phase) {
	u.mu.Lock()
	u.phase = p
	u.mu.Unlock()
}
