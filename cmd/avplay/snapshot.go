package main

import (
	"context"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/xaionaro-go/avplayback/decoding"
	"github.com/xaionaro-go/avplayback/types"
)

// saveSnapshot writes the current video frame as a PNG image, optionally
// resized to the given resolution.
func saveSnapshot(
	ctx context.Context,
	decoder *decoding.Context,
	path string,
	size types.Resolution,
) error {
	pix, _, ok, err := decoder.CopyCurrentVideoFrame(ctx, nil)
	if err != nil {
		return fmt.Errorf("unable to copy the current frame: %w", err)
	}
	if !ok {
		return fmt.Errorf("no frame is displayed")
	}

	res := decoder.VideoResolution()
	var img image.Image = &image.RGBA{
		Pix:    pix,
		Stride: int(res.Width) * 4,
		Rect:   image.Rect(0, 0, int(res.Width), int(res.Height)),
	}
	if !size.IsZero() && size != res {
		img = transform.Resize(img, int(size.Width), int(size.Height), transform.Linear)
	}
	if err := imgio.Save(path, img, imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("unable to save the snapshot to '%s': %w", path, err)
	}
	return nil
}
