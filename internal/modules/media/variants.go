package media

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

// variantWidths are the derived sizes generated next to each stored image.
// Widths larger than the source are skipped.
var variantWidths = []int{300, 768, 1024}

// generateVariants writes scaled copies of an image alongside the original,
// named <base>-<w>x<h>.<ext>. Unsupported formats are skipped silently.
func (s *Service) generateVariants(target string, data []byte) error {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	if format != "jpeg" && format != "png" {
		return nil
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	ext := filepath.Ext(target)
	base := strings.TrimSuffix(target, ext)

	for _, w := range variantWidths {
		if w >= srcW {
			continue
		}
		h := srcH * w / srcW
		if h < 1 {
			h = 1
		}

		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

		out := fmt.Sprintf("%s-%dx%d%s", base, w, h, ext)
		if err := encodeTo(out, format, dst); err != nil {
			return err
		}
	}
	return nil
}

func encodeTo(path, format string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create variant: %w", err)
	}
	defer f.Close()

	switch format {
	case "jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 85})
	case "png":
		err = png.Encode(f, img)
	}
	if err != nil {
		return fmt.Errorf("encode variant: %w", err)
	}
	return nil
}
