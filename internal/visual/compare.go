package visual

import (
	"image"
	"image/color"

	"github.com/corona10/goimagehash"
	"github.com/nfnt/resize"
)

// comparison holds the raw numbers of one pixel-level compare.
type comparison struct {
	similarityPercent float64
	pixelDiffCount    int
	perceptualDist    int
	diffImage         *image.RGBA
}

// compareImages computes pixel-level similarity between two raster images.
// When dimensions differ the current image is resampled to the reference
// size first. Pixels whose summed channel delta exceeds the tolerance count
// as different and are highlighted in the diff visualization.
func compareImages(reference, current image.Image, tolerance int) (*comparison, error) {
	bounds := reference.Bounds()
	if !current.Bounds().Eq(bounds) {
		current = resize.Resize(uint(bounds.Dx()), uint(bounds.Dy()), current, resize.Bilinear)
	}

	diffImg := image.NewRGBA(bounds)
	diffCount := 0
	total := bounds.Dx() * bounds.Dy()

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			refPx := reference.At(x, y)
			curPx := current.At(x, y)

			if pixelDelta(refPx, curPx) > tolerance {
				diffCount++
				diffImg.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				diffImg.Set(x, y, toGray(refPx))
			}
		}
	}

	similarity := 100.0
	if total > 0 {
		similarity = 100.0 * float64(total-diffCount) / float64(total)
	}

	result := &comparison{
		similarityPercent: similarity,
		pixelDiffCount:    diffCount,
		diffImage:         diffImg,
	}

	refHash, err := goimagehash.PerceptionHash(reference)
	if err != nil {
		return nil, err
	}
	curHash, err := goimagehash.PerceptionHash(current)
	if err != nil {
		return nil, err
	}
	dist, err := refHash.Distance(curHash)
	if err != nil {
		return nil, err
	}
	result.perceptualDist = dist

	return result, nil
}

// pixelDelta sums the per-channel differences of two pixels.
func pixelDelta(a, b color.Color) int {
	ar, ag, ab, _ := a.RGBA()
	br, bg, bb, _ := b.RGBA()

	delta := absDiff(ar>>8, br>>8) + absDiff(ag>>8, bg>>8) + absDiff(ab>>8, bb>>8)
	return int(delta)
}

func absDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

// toGray dims unchanged pixels so differences stand out in the diff image.
func toGray(c color.Color) color.RGBA {
	r, g, b, _ := c.RGBA()
	gray := uint8(((r + g + b) / 3) >> 9)
	return color.RGBA{R: gray, G: gray, B: gray, A: 255}
}
