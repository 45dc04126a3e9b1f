package cmd

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThumbnailPath(t *testing.T) {
	require.Equal(t, "/out/name.thumbnail.jpg", thumbnailPath("/out", "name.png", "thumbnail", "jpeg"))
	require.Equal(t, "/out/name.thumbnail.png", thumbnailPath("/out", "name.jpeg", "thumbnail", "png"))
}

func TestImageFilename(t *testing.T) {
	cases := []struct {
		name        string
		rawURL      string
		contentType string
		index       int
		want        string
	}{
		{
			name:   "url basename with extension wins",
			rawURL: "https://cdn.example.com/listings/cat-123.png",
			want:   "cat-123.png",
		},
		{
			name:        "extension from content type",
			rawURL:      "https://cdn.example.com/listings/cat-123",
			contentType: "image/jpeg",
			want:        "cat-123.jpg",
		},
		{
			name:        "indexed fallback for opaque urls",
			rawURL:      "https://cdn.example.com/%%%",
			contentType: "image/webp",
			index:       2,
			want:        "image-3.webp",
		},
		{
			name:   "unknown content type falls back to bin",
			rawURL: "https://cdn.example.com/listings/blob",
			want:   "blob.bin",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, imageFilename(tc.rawURL, tc.contentType, tc.index))
		})
	}
}

func TestWriteThumbnailShrinksImage(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.png")
	outPath := filepath.Join(dir, "out.jpg")

	img := image.NewRGBA(image.Rect(0, 0, 1000, 500))
	f, err := os.Create(inPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	require.NoError(t, writeThumbnail(inPath, outPath, 200, "jpeg", 80))

	outFile, err := os.Open(outPath)
	require.NoError(t, err)
	defer outFile.Close() // nolint:errcheck

	thumb, _, err := image.Decode(outFile)
	require.NoError(t, err)
	require.Equal(t, 200, thumb.Bounds().Dx())
	require.Equal(t, 100, thumb.Bounds().Dy())
}

func TestWriteThumbnailNeverUpscales(t *testing.T) {
	dir := t.TempDir()
	inPath := filepath.Join(dir, "in.png")
	outPath := filepath.Join(dir, "out.png")

	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	f, err := os.Create(inPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	require.NoError(t, writeThumbnail(inPath, outPath, 256, "png", 0))

	outFile, err := os.Open(outPath)
	require.NoError(t, err)
	defer outFile.Close() // nolint:errcheck

	thumb, _, err := image.Decode(outFile)
	require.NoError(t, err)
	require.Equal(t, 40, thumb.Bounds().Dx())
	require.Equal(t, 30, thumb.Bounds().Dy())
}
