package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObjectURI(t *testing.T) {
	tests := []struct {
		uri        string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{"s3://videos/2024/front.mp4", "videos", "2024/front.mp4", false},
		{"minio://clips/a.mov", "clips", "a.mov", false},
		{"uploads/front.mp4", "default", "uploads/front.mp4", false},
		{"/uploads/front.mp4", "default", "uploads/front.mp4", false},
		{"s3://videos", "", "", true},
		{"s3:///key", "", "", true},
		{"https://example.com/a.mp4", "", "", true},
		{"  ", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := ParseObjectURI(tt.uri, "default")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}

	_, _, err := ParseObjectURI("front.mp4", "")
	assert.Error(t, err)
}
