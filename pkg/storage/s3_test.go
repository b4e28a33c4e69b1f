package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateVideoFileType(t *testing.T) {
	require.True(t, ValidateVideoFileType("video/mp4", "clip.mp4"))
	require.True(t, ValidateVideoFileType("", "clip.webm"))
	require.True(t, ValidateVideoFileType("video/quicktime", "download"))
	require.True(t, ValidateVideoFileType("application/octet-stream", "clip.MP4"))
	require.False(t, ValidateVideoFileType("image/png", "marker.png"))
	require.False(t, ValidateVideoFileType("", "notes.txt"))
	require.False(t, ValidateVideoFileType("", ""))
}

func TestContentTypeForFilename(t *testing.T) {
	require.Equal(t, "video/mp4", ContentTypeForFilename("a.mp4"))
	require.Equal(t, "video/webm", ContentTypeForFilename("a.webm"))
	require.Equal(t, "video/quicktime", ContentTypeForFilename("a.mov"))
	require.Equal(t, "application/octet-stream", ContentTypeForFilename("a.bin"))
}

func TestVideoKey(t *testing.T) {
	require.Equal(t, "videos/42/clip.mp4", VideoKey(42, "clip.mp4"))
	// Path components in the filename are stripped.
	require.Equal(t, "videos/42/clip.mp4", VideoKey(42, "../../clip.mp4"))
}

func TestValidateMarkerFileType(t *testing.T) {
	require.True(t, ValidateMarkerFileType("image/png", "marker.png"))
	require.True(t, ValidateMarkerFileType("", "marker.jpeg"))
	require.True(t, ValidateMarkerFileType("image/jpeg", "download"))
	require.False(t, ValidateMarkerFileType("video/mp4", "clip.mp4"))
	require.False(t, ValidateMarkerFileType("", "marker.gif"))
	require.False(t, ValidateMarkerFileType("", ""))
}

func TestMarkerContentTypeForFilename(t *testing.T) {
	require.Equal(t, "image/png", MarkerContentTypeForFilename("m.png"))
	require.Equal(t, "image/jpeg", MarkerContentTypeForFilename("m.jpg"))
	require.Equal(t, "application/octet-stream", MarkerContentTypeForFilename("m.bin"))
}

func TestMarkerKey(t *testing.T) {
	require.Equal(t, "markers/42/marker.png", MarkerKey(42, "marker.png"))
	require.Equal(t, "markers/42/marker.png", MarkerKey(42, "../../marker.png"))
}
