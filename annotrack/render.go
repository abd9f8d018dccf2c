package annotrack

import (
	"image"

	"github.com/fogleman/gg"
)

const defaultBoxColor = "#00ff00"

// DrawAnnotatedFrame renders every visible object box, with its class color
// and label when tagged, on top of the frame image and returns the result.
// The input image is not modified.
func DrawAnnotatedFrame(frame *FrameWithObjects) image.Image {
	dc := gg.NewContextForImage(frame.Image)
	for _, position := range frame.Objects {
		if !position.Frame.IsVisible() {
			continue
		}
		box := position.Frame.BBox
		color := defaultBoxColor
		label := ""
		if class := position.Object.GetClass(); class != nil {
			if class.Color != "" {
				color = class.Color
			}
			label = class.Name
		}
		dc.SetHexColor(color)
		dc.SetLineWidth(2)
		dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
		dc.Stroke()
		if label != "" {
			dc.DrawString(label, box.X+2, box.Y-4)
		}
	}
	return dc.Image()
}
