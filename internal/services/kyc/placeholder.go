package kyc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

var (
	placeholderOnce sync.Once
	placeholderData []byte
)

// placeholderPNG returns a small neutral gray tile served in place of
// documents that were recorded but are absent from disk
func placeholderPNG() []byte {
	placeholderOnce.Do(func() {
		img := image.NewRGBA(image.Rect(0, 0, 160, 120))
		gray := color.RGBA{R: 0xd9, G: 0xd9, B: 0xd9, A: 0xff}
		for y := 0; y < 120; y++ {
			for x := 0; x < 160; x++ {
				img.Set(x, y, gray)
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err == nil {
			placeholderData = buf.Bytes()
		}
	})
	return placeholderData
}
