// Package filesource abstracts the local file being uploaded so the upload
// loop can read bounded byte ranges on demand.
package filesource

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"

	"github.com/bitrise-io/go-utils/v2/pathutil"
)

// Source provides sized, range-readable access to upload data.
type Source interface {
	// Size returns the total length of the data in bytes.
	Size() (int64, error)

	// OpenRange returns a reader over the half-open byte range [start, end).
	// The caller is responsible for closing the returned reader.
	OpenRange(start, end int64) (io.ReadCloser, error)
}

type localFile struct {
	file *os.File
}

// OpenLocalFile opens the file at path as an upload Source.
func OpenLocalFile(path string, pathModifier pathutil.PathModifier) (*localFile, error) {
	absPath, err := pathModifier.AbsPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	return &localFile{file: file}, nil
}

func (f *localFile) Size() (int64, error) {
	info, err := f.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat file: %w", err)
	}
	return info.Size(), nil
}

func (f *localFile) OpenRange(start, end int64) (io.ReadCloser, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid byte range [%d, %d)", start, end)
	}
	return ioutil.NopCloser(io.NewSectionReader(f.file, start, end-start)), nil
}

// Close closes the underlying file.
func (f *localFile) Close() error {
	return f.file.Close()
}
