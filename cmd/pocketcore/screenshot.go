package main

import (
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"

	"github.com/kaelindev/pocketcore/internal/ppu"
)

// saveScreenshot writes the current RGBA frame to path as a PNG, scaled by
// an integer factor with a Catmull-Rom resampler rather than a nearest-
// neighbor blit, matching the teacher's display.go label-compositing scale.
func saveScreenshot(path string, frame []byte, scale int) error {
	src := image.NewRGBA(image.Rect(0, 0, ppu.ScreenWidth, ppu.ScreenHeight))
	copy(src.Pix, frame)

	dstW, dstH := ppu.ScreenWidth*scale, ppu.ScreenHeight*scale
	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, dst)
}
