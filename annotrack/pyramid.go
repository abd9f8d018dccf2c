package annotrack

import (
	"image"

	"github.com/chewxy/math32"
)

// pyramidLevel is one grayscale image of the pyramid, intensities in [0, 255]
type pyramidLevel struct {
	width  int
	height int
	pix    []float32
}

// resize reallocates the pixel buffer only when dimensions actually change
func (lv *pyramidLevel) resize(width, height int) {
	if lv.width == width && lv.height == height && lv.pix != nil {
		return
	}
	lv.width = width
	lv.height = height
	lv.pix = make([]float32, width*height)
}

// at returns the intensity at integer coordinates, clamped to the image bounds
func (lv *pyramidLevel) at(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= lv.width {
		x = lv.width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= lv.height {
		y = lv.height - 1
	}
	return lv.pix[y*lv.width+x]
}

// sample returns the bilinearly interpolated intensity at fractional
// coordinates, clamped to the image bounds
func (lv *pyramidLevel) sample(x, y float32) float32 {
	fx := math32.Floor(x)
	fy := math32.Floor(y)
	ax := x - fx
	ay := y - fy
	x0 := int(fx)
	y0 := int(fy)
	v00 := lv.at(x0, y0)
	v10 := lv.at(x0+1, y0)
	v01 := lv.at(x0, y0+1)
	v11 := lv.at(x0+1, y0+1)
	top := v00 + ax*(v10-v00)
	bottom := v01 + ax*(v11-v01)
	return top + ay*(bottom-top)
}

// Pyramid is a stack of progressively downsampled grayscale copies of an
// image. Coarse levels recover large displacements, fine levels refine them.
// Buffers are reused across Rebuild calls as long as dimensions stay the same.
type Pyramid struct {
	levels []pyramidLevel
}

func NewPyramid(numLevels int) *Pyramid {
	return &Pyramid{
		levels: make([]pyramidLevel, numLevels),
	}
}

// Width returns the width of the base (full resolution) level
func (p *Pyramid) Width() int {
	return p.levels[0].width
}

// Height returns the height of the base (full resolution) level
func (p *Pyramid) Height() int {
	return p.levels[0].height
}

// Rebuild converts img to grayscale into the base level and rebuilds every
// coarser level by 2x2 box downsampling.
func (p *Pyramid) Rebuild(img image.Image) {
	bounds := img.Bounds()
	p.levels[0].resize(bounds.Dx(), bounds.Dy())
	grayscaleInto(img, &p.levels[0])
	for l := 1; l < len(p.levels); l++ {
		prev := &p.levels[l-1]
		p.levels[l].resize(max(1, prev.width/2), max(1, prev.height/2))
		downsampleInto(prev, &p.levels[l])
	}
}

// grayscaleInto converts img into Rec.601 luma intensities.
// Fast paths exist for the two image kinds frame decoding actually produces.
func grayscaleInto(img image.Image, dst *pyramidLevel) {
	bounds := img.Bounds()
	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < dst.height; y++ {
			row := src.Pix[(y+bounds.Min.Y-src.Rect.Min.Y)*src.Stride+(bounds.Min.X-src.Rect.Min.X):]
			for x := 0; x < dst.width; x++ {
				dst.pix[y*dst.width+x] = float32(row[x])
			}
		}
	case *image.RGBA:
		for y := 0; y < dst.height; y++ {
			row := src.Pix[(y+bounds.Min.Y-src.Rect.Min.Y)*src.Stride+(bounds.Min.X-src.Rect.Min.X)*4:]
			for x := 0; x < dst.width; x++ {
				r := float32(row[x*4])
				g := float32(row[x*4+1])
				b := float32(row[x*4+2])
				dst.pix[y*dst.width+x] = 0.299*r + 0.587*g + 0.114*b
			}
		}
	default:
		for y := 0; y < dst.height; y++ {
			for x := 0; x < dst.width; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				dst.pix[y*dst.width+x] = (0.299*float32(r) + 0.587*float32(g) + 0.114*float32(b)) / 257.0
			}
		}
	}
}

// downsampleInto averages 2x2 blocks of src into dst
func downsampleInto(src, dst *pyramidLevel) {
	for y := 0; y < dst.height; y++ {
		for x := 0; x < dst.width; x++ {
			sx := x * 2
			sy := y * 2
			sum := src.at(sx, sy) + src.at(sx+1, sy) + src.at(sx, sy+1) + src.at(sx+1, sy+1)
			dst.pix[y*dst.width+x] = sum * 0.25
		}
	}
}
