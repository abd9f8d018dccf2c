package annotrack

import (
	"github.com/chewxy/math32"
)

// trackPointsPyramidal runs a pyramidal Lucas-Kanade tracker for every sample
// point from the previous pyramid to the current one. It returns the new point
// positions alongside a per-point success flag: points whose local gradient is
// too weak to track reliably, or that drift outside the image, are marked
// failed rather than guessed.
func trackPointsPyramidal(prev, curr *Pyramid, points []Point, config FlowConfig) ([]Point, []bool) {
	moved := make([]Point, len(points))
	status := make([]bool, len(points))
	scratch := newLKScratch(config.WindowSize)
	for i := range points {
		moved[i], status[i] = trackSinglePoint(prev, curr, points[i], config, scratch)
	}
	return moved, status
}

// lkScratch holds the per-window buffers reused for every tracked point
type lkScratch struct {
	half    int
	prevVal []float32
	gradX   []float32
	gradY   []float32
}

func newLKScratch(windowSize int) *lkScratch {
	half := windowSize / 2
	side := 2*half + 1
	area := side * side
	return &lkScratch{
		half:    half,
		prevVal: make([]float32, area),
		gradX:   make([]float32, area),
		gradY:   make([]float32, area),
	}
}

func trackSinglePoint(prev, curr *Pyramid, point Point, config FlowConfig, scratch *lkScratch) (Point, bool) {
	numLevels := len(prev.levels)
	half := scratch.half
	winArea := float32((2*half + 1) * (2*half + 1))
	eps2 := float32(config.Epsilon * config.Epsilon)

	// Flow guess carried from coarse to fine levels
	var gx, gy float32

	for level := numLevels - 1; level >= 0; level-- {
		scale := float32(int(1) << uint(level))
		px := float32(point.X) / scale
		py := float32(point.Y) / scale
		prevLv := &prev.levels[level]
		currLv := &curr.levels[level]

		// Spatial gradient matrix of the window in the previous image
		var sumIxx, sumIxy, sumIyy float32
		idx := 0
		for wy := -half; wy <= half; wy++ {
			for wx := -half; wx <= half; wx++ {
				x := px + float32(wx)
				y := py + float32(wy)
				ix := (prevLv.sample(x+1, y) - prevLv.sample(x-1, y)) * 0.5
				iy := (prevLv.sample(x, y+1) - prevLv.sample(x, y-1)) * 0.5
				scratch.prevVal[idx] = prevLv.sample(x, y)
				scratch.gradX[idx] = ix
				scratch.gradY[idx] = iy
				sumIxx += ix * ix
				sumIxy += ix * iy
				sumIyy += iy * iy
				idx++
			}
		}

		// Minimum eigenvalue of the gradient matrix, normalized per pixel.
		// A weak eigenvalue means the window has no trackable structure
		// (flat region or pure edge), so the point fails instead of drifting.
		trace := sumIxx + sumIyy
		diff := sumIxx - sumIyy
		minEig := (trace - math32.Sqrt(diff*diff+4*sumIxy*sumIxy)) * 0.5 / winArea
		if minEig < float32(config.MinEigenvalue) {
			return point, false
		}
		det := sumIxx*sumIyy - sumIxy*sumIxy
		if det == 0 {
			return point, false
		}

		// Iterative refinement of the flow vector at this level
		var vx, vy float32
		for iter := 0; iter < config.MaxIterations; iter++ {
			var bx, by float32
			idx = 0
			for wy := -half; wy <= half; wy++ {
				for wx := -half; wx <= half; wx++ {
					x := px + float32(wx)
					y := py + float32(wy)
					delta := scratch.prevVal[idx] - currLv.sample(x+gx+vx, y+gy+vy)
					bx += delta * scratch.gradX[idx]
					by += delta * scratch.gradY[idx]
					idx++
				}
			}
			etaX := (sumIyy*bx - sumIxy*by) / det
			etaY := (sumIxx*by - sumIxy*bx) / det
			vx += etaX
			vy += etaY
			if etaX*etaX+etaY*etaY < eps2 {
				break
			}
		}

		if level > 0 {
			gx = 2 * (gx + vx)
			gy = 2 * (gy + vy)
		} else {
			gx += vx
			gy += vy
		}
	}

	if math32.IsNaN(gx) || math32.IsNaN(gy) {
		return point, false
	}
	newX := point.X + float64(gx)
	newY := point.Y + float64(gy)
	base := &curr.levels[0]
	if newX < 0 || newY < 0 || newX > float64(base.width-1) || newY > float64(base.height-1) {
		return point, false
	}
	return Point{X: newX, Y: newY}, true
}
