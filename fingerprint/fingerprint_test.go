package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Generate(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "absolute path",
			path: "/var/videos/demo.mp4",
			want: "-var-videos-demo-mp4",
		},
		{
			name: "path with spaces and punctuation",
			path: "/tmp/My Clip (final).mov",
			want: "-tmp-My-Clip-final-mov",
		},
		{
			name: "relative path",
			path: "out/render_01.mp4",
			want: "out-render_01-mp4",
		},
		{
			name: "run of separators collapses",
			path: "a//b..c",
			want: "a-b-c",
		},
		{
			name: "empty path",
			path: "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.path))
		})
	}
}

func Test_Generate_deterministic(t *testing.T) {
	path := "/home/user/videos/take 2.mp4"
	assert.Equal(t, Generate(path), Generate(path))
}

// Paths differing only in punctuation map to the same key. This is a known
// property of path-based fingerprints, not a defect.
func Test_Generate_punctuationCollision(t *testing.T) {
	assert.Equal(t, Generate("a.b"), Generate("a/b"))
}
