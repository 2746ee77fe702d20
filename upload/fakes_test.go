package upload

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"sync"
)

type fakeSource struct {
	data []byte
}

func (s *fakeSource) Size() (int64, error) {
	return int64(len(s.data)), nil
}

func (s *fakeSource) OpenRange(start, end int64) (io.ReadCloser, error) {
	if end > int64(len(s.data)) {
		end = int64(len(s.data))
	}
	return ioutil.NopCloser(bytes.NewReader(s.data[start:end])), nil
}

type fakeStore struct {
	mu       sync.Mutex
	sessions map[string]string
	removed  []string
	setCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: map[string]string{}}
}

func (s *fakeStore) Get(_ context.Context, fp string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	url, ok := s.sessions[fp]
	return url, ok, nil
}

func (s *fakeStore) Set(_ context.Context, fp string, uploadURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[fp] = uploadURL
	s.setCalls++
	return nil
}

func (s *fakeStore) Remove(_ context.Context, fp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, fp)
	s.removed = append(s.removed, fp)
	return nil
}

func (s *fakeStore) removedFingerprints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.removed...)
}
