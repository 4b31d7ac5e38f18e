package thumbnail

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// Generator produces bounded-size derivatives of stored images.
// Thumbnailing is best-effort: callers decide what a failure means,
// the generator only reports it.
type Generator struct {
	width  int
	height int
}

// New creates a generator bounding thumbnails to width x height pixels.
func New(width, height int) *Generator {
	return &Generator{width: width, height: height}
}

// Generate reads the image at srcPath, scales it to fit within the bounding
// box preserving aspect ratio, and writes the result to dstPath.
// Images already within the box are written unscaled.
func (g *Generator) Generate(srcPath, dstPath string) error {
	img, err := imaging.Open(srcPath)
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > g.width || bounds.Dy() > g.height {
		img = imaging.Fit(img, g.width, g.height, imaging.Lanczos)
	}

	if err := imaging.Save(img, dstPath); err != nil {
		return fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return nil
}
