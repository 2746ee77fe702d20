package upload

import "strings"

// phase is the orchestrator's position in the upload lifecycle. It is an
// explicit value rather than a bundle of ambient flags so that illegal
// combinations (transferring without an upload URL, completing twice) cannot
// be reached by accident.
type phase int

const (
	phaseIdle phase = iota
	phaseCreating
	phaseResuming
	phaseOffsetSync
	phaseTransferring
	phasePaused
	phaseCompleted
)

func (p phase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseCreating:
		return "creating"
	case phaseResuming:
		return "resuming"
	case phaseOffsetSync:
		return "offset-sync"
	case phaseTransferring:
		return "transferring"
	case phasePaused:
		return "paused"
	case phaseCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// session is the mutable state of one upload. It is owned by the single
// control flow driving the upload; Pause resets it wholesale.
type session struct {
	fingerprint string
	uploadURL   string
	videoURI    string
	fileSize    int64
	chunkSize   int64
	offset      int64
}

// videoID returns the resource identifier for status/move/delete calls: the
// substring of the video URI after the last slash.
func (s *session) videoID() string {
	return s.videoURI[strings.LastIndex(s.videoURI, "/")+1:]
}

// deriveChunkSize computes the chunk size used for a session: one-tenth of
// the total file size, clamped to [1, fileSize].
func deriveChunkSize(fileSize int64) int64 {
	chunkSize := fileSize / 10
	if chunkSize < 1 {
		chunkSize = fileSize
	}
	if chunkSize < 1 {
		chunkSize = 1
	}
	return chunkSize
}
