package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"sync"

	"github.com/bitrise-io/go-utils/v2/fileutil"
	"github.com/bitrise-io/go-utils/v2/pathutil"
)

type fileStore struct {
	path        string
	fileManager fileutil.FileManager

	mu sync.Mutex
}

// NewFileStore creates a Store persisted as a single JSON document at path.
// The mapping survives process restarts, which is what makes resuming an
// interrupted upload possible after a crash.
func NewFileStore(path string, fileManager fileutil.FileManager, pathModifier pathutil.PathModifier) (Store, error) {
	absPath, err := pathModifier.AbsPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve session store path: %w", err)
	}

	return &fileStore{
		path:        absPath,
		fileManager: fileManager,
	}, nil
}

func (s *fileStore) Get(_ context.Context, fingerprint string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return "", false, err
	}

	url, ok := sessions[fingerprint]
	return url, ok, nil
}

func (s *fileStore) Set(_ context.Context, fingerprint string, uploadURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}

	sessions[fingerprint] = uploadURL
	return s.save(sessions)
}

func (s *fileStore) Remove(_ context.Context, fingerprint string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.load()
	if err != nil {
		return err
	}

	if _, ok := sessions[fingerprint]; !ok {
		return nil
	}

	delete(sessions, fingerprint)
	return s.save(sessions)
}

func (s *fileStore) load() (map[string]string, error) {
	reader, err := s.fileManager.OpenReaderIfExists(s.path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if reader == nil {
		return map[string]string{}, nil
	}

	content, err := ioutil.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read session store: %w", err)
	}
	if len(content) == 0 {
		return map[string]string{}, nil
	}

	var sessions map[string]string
	if err := json.Unmarshal(content, &sessions); err != nil {
		return nil, fmt.Errorf("parse session store: %w", err)
	}
	return sessions, nil
}

func (s *fileStore) save(sessions map[string]string) error {
	content, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("encode session store: %w", err)
	}

	if err := s.fileManager.WriteBytes(s.path, content); err != nil {
		return fmt.Errorf("write session store: %w", err)
	}
	return nil
}
