package filesource

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.bin")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLocalFile_Size(t *testing.T) {
	path := createTestFile(t, "0123456789")

	source, err := OpenLocalFile(path, pathutil.NewPathModifier())
	require.NoError(t, err)
	defer source.Close() //nolint:errcheck

	size, err := source.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(10), size)
}

func TestLocalFile_OpenRange(t *testing.T) {
	tests := []struct {
		name  string
		start int64
		end   int64
		want  string
	}{
		{
			name:  "full range",
			start: 0,
			end:   10,
			want:  "0123456789",
		},
		{
			name:  "middle slice",
			start: 3,
			end:   7,
			want:  "3456",
		},
		{
			name:  "empty range",
			start: 5,
			end:   5,
			want:  "",
		},
		{
			name:  "range past end is truncated",
			start: 8,
			end:   20,
			want:  "89",
		},
	}

	path := createTestFile(t, "0123456789")
	source, err := OpenLocalFile(path, pathutil.NewPathModifier())
	require.NoError(t, err)
	defer source.Close() //nolint:errcheck

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := source.OpenRange(tt.start, tt.end)
			require.NoError(t, err)
			defer reader.Close() //nolint:errcheck

			content, err := ioutil.ReadAll(reader)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(content))
		})
	}
}

func TestLocalFile_OpenRange_invalid(t *testing.T) {
	path := createTestFile(t, "0123456789")
	source, err := OpenLocalFile(path, pathutil.NewPathModifier())
	require.NoError(t, err)
	defer source.Close() //nolint:errcheck

	_, err = source.OpenRange(-1, 5)
	assert.Error(t, err)

	_, err = source.OpenRange(7, 3)
	assert.Error(t, err)
}

func TestOpenLocalFile_missing(t *testing.T) {
	_, err := OpenLocalFile(filepath.Join(t.TempDir(), "nope.bin"), pathutil.NewPathModifier())
	assert.Error(t, err)
}
