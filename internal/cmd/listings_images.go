package cmd

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/cataloro/cataloro/internal/observability"
)

var (
	imagesOutDir      string
	imagesThumb       bool
	imagesMaxSize     int
	imagesFormat      string
	imagesJPEGQuality int
)

var listingsImagesCmd = &cobra.Command{
	Use:   "images <id>",
	Short: "Download the images of a listing",
	Long:  "Download listing images through the dispatcher, optionally generating smaller thumbnails (png/jpeg) for easier review.",
	Args:  cobra.ExactArgs(1),
	RunE:  runListingsImages,
}

func runListingsImages(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	outDir := strings.TrimSpace(imagesOutDir)
	if outDir == "" {
		return errors.New("--out-dir is required")
	}
	format := strings.ToLower(strings.TrimSpace(imagesFormat))
	if imagesThumb && (imagesMaxSize < 64 || imagesMaxSize > 1024) {
		return errors.New("--max-size must be between 64 and 1024")
	}

	absOut, err := ensureOutDir(outDir)
	if err != nil {
		return err
	}
	if err := verifyDirWritable(absOut); err != nil {
		return err
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup

	client, _, err := newMarketClient(ctx, db, true)
	if err != nil {
		return err
	}

	id := strings.TrimSpace(args[0])
	listing, err := client.GetListing(ctx, id)
	if err != nil {
		return err
	}
	if len(listing.Images) == 0 {
		observability.CLILogger.Info("Listing has no images", zap.String("listing_id", id))
		return nil
	}

	for i, rawURL := range listing.Images {
		body, contentType, err := client.Download(ctx, rawURL)
		if err != nil {
			return fmt.Errorf("download image %d: %w", i+1, err)
		}

		name := imageFilename(rawURL, contentType, i)
		outPath := filepath.Join(absOut, name)
		if err := os.WriteFile(outPath, body, 0644); err != nil {
			return fmt.Errorf("write image %s: %w", name, err)
		}
		observability.CLILogger.Info("Wrote listing image",
			zap.String("path", outPath),
			zap.Int("bytes", len(body)))

		if imagesThumb {
			thumbPath := thumbnailPath(absOut, name, "thumbnail", format)
			if err := writeThumbnail(outPath, thumbPath, imagesMaxSize, format, imagesJPEGQuality); err != nil {
				return fmt.Errorf("thumbnail %s: %w", name, err)
			}
			observability.CLILogger.Info("Wrote thumbnail", zap.String("path", thumbPath))
		}
	}

	return nil
}

// imageFilename derives a local file name from the image URL, falling back
// to an indexed name with an extension guessed from the content type.
func imageFilename(rawURL, contentType string, index int) string {
	base := sanitizeFilename(path.Base(rawURL))
	if base != "output" && strings.Contains(base, ".") {
		return base
	}

	ext := ".bin"
	switch {
	case strings.Contains(contentType, "jpeg"):
		ext = ".jpg"
	case strings.Contains(contentType, "png"):
		ext = ".png"
	case strings.Contains(contentType, "webp"):
		ext = ".webp"
	}
	if base != "output" {
		return base + ext
	}
	return fmt.Sprintf("image-%d%s", index+1, ext)
}

func thumbnailPath(outDir, filename, suffix, format string) string {
	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	ext := "jpg"
	if format == "png" {
		ext = "png"
	}
	return filepath.Join(outDir, fmt.Sprintf("%s.%s.%s", base, suffix, ext))
}

func writeThumbnail(inPath, outPath string, maxSize int, format string, jpegQuality int) error {
	inFile, err := os.Open(inPath)
	if err != nil {
		return err
	}
	defer inFile.Close() // nolint:errcheck

	srcImg, _, err := image.Decode(inFile)
	if err != nil {
		return err
	}

	bounds := srcImg.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return errors.New("invalid image dimensions")
	}

	scale := float64(maxSize) / float64(max(width, height))
	if scale > 1 {
		scale = 1
	}
	newW := int(float64(width) * scale)
	newH := int(float64(height) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), srcImg, bounds, draw.Over, nil)

	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer outFile.Close() // nolint:errcheck

	return encodeImage(outFile, dst, format, jpegQuality)
}

func encodeImage(w io.Writer, img image.Image, format string, jpegQuality int) error {
	switch format {
	case "png":
		return png.Encode(w, img)
	case "jpeg", "jpg", "":
		q := jpegQuality
		if q < 1 {
			q = 1
		}
		if q > 100 {
			q = 100
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: q})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func verifyDirWritable(dir string) error {
	probe := filepath.Join(dir, ".cataloro-write-test")
	f, err := os.OpenFile(probe, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("output directory not writable: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Remove(probe)
	return nil
}

func init() {
	listingsCmd.AddCommand(listingsImagesCmd)

	listingsImagesCmd.Flags().StringVar(&imagesOutDir, "out-dir", "", "Output directory for images")
	listingsImagesCmd.Flags().BoolVar(&imagesThumb, "thumb", false, "Also generate thumbnails")
	listingsImagesCmd.Flags().IntVar(&imagesMaxSize, "max-size", 256, "Max thumbnail dimension (64-1024)")
	listingsImagesCmd.Flags().StringVar(&imagesFormat, "format", "jpeg", "Thumbnail format: jpeg or png")
	listingsImagesCmd.Flags().IntVar(&imagesJPEGQuality, "jpeg-quality", 80, "JPEG quality (1-100)")
}
