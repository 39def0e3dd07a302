package analyzer

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ContrastDetector finds busy regions with a Sobel edge map, closes gaps by
// dilation and returns the bounding boxes of connected components.
type ContrastDetector struct {
	// WorkSize bounds the longer side of the analysed copy.
	WorkSize int
	// MinArea is the smallest block kept, as a fraction of the photo area.
	MinArea       float64
	EdgeThreshold float64
	DilateRadius  int
}

func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		WorkSize:      512,
		MinArea:       0.005,
		EdgeThreshold: 30.0,
		DilateRadius:  2,
	}
}

func (d *ContrastDetector) Detect(img image.Image) ([]Block, error) {
	src := img.Bounds()
	if src.Empty() {
		return nil, nil
	}

	work := imaging.Grayscale(img)
	if d.WorkSize > 0 && (src.Dx() > d.WorkSize || src.Dy() > d.WorkSize) {
		work = imaging.Fit(work, d.WorkSize, d.WorkSize, imaging.Box)
	}
	wb := work.Bounds()
	sx := float64(src.Dx()) / float64(wb.Dx())
	sy := float64(src.Dy()) / float64(wb.Dy())

	lum := luminance(work)
	edges := sobel(lum, wb.Dx(), wb.Dy(), d.EdgeThreshold)
	mask := dilate(edges, wb.Dx(), wb.Dy(), d.DilateRadius)

	minArea := d.MinArea * float64(wb.Dx()*wb.Dy())
	var blocks []Block
	for _, c := range components(mask, wb.Dx(), wb.Dy()) {
		area := c.rect.Dx() * c.rect.Dy()
		if float64(area) < minArea {
			continue
		}
		edgeCount := 0
		for y := c.rect.Min.Y; y < c.rect.Max.Y; y++ {
			for x := c.rect.Min.X; x < c.rect.Max.X; x++ {
				if edges[y*wb.Dx()+x] {
					edgeCount++
				}
			}
		}
		blocks = append(blocks, Block{
			Rect: image.Rect(
				src.Min.X+int(math.Floor(float64(c.rect.Min.X)*sx)),
				src.Min.Y+int(math.Floor(float64(c.rect.Min.Y)*sy)),
				src.Min.X+int(math.Ceil(float64(c.rect.Max.X)*sx)),
				src.Min.Y+int(math.Ceil(float64(c.rect.Max.Y)*sy)),
			).Intersect(src),
			Density: float64(edgeCount) / float64(area),
		})
	}
	return blocks, nil
}

// luminance reads the grey channel of an imaging.Grayscale result.
func luminance(img *image.NRGBA) []float64 {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			out[y*w+x] = float64(row[x*4])
		}
	}
	return out
}

func sobel(lum []float64, w, h int, threshold float64) []bool {
	edges := make([]bool, w*h)
	at := func(x, y int) float64 { return lum[y*w+x] }
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			gx := -at(x-1, y-1) + at(x+1, y-1) - 2*at(x-1, y) + 2*at(x+1, y) - at(x-1, y+1) + at(x+1, y+1)
			gy := -at(x-1, y-1) - 2*at(x, y-1) - at(x+1, y-1) + at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)
			edges[y*w+x] = math.Hypot(gx, gy) > threshold
		}
	}
	return edges
}

// dilate grows the mask by r in each direction, rows then columns.
func dilate(mask []bool, w, h, r int) []bool {
	if r <= 0 {
		return mask
	}
	rows := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for k := max(0, x-r); k <= min(w-1, x+r); k++ {
				if mask[y*w+k] {
					rows[y*w+x] = true
					break
				}
			}
		}
	}
	out := make([]bool, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for k := max(0, y-r); k <= min(h-1, y+r); k++ {
				if rows[k*w+x] {
					out[y*w+x] = true
					break
				}
			}
		}
	}
	return out
}

type component struct {
	rect image.Rectangle
}

// components labels 4-connected regions of the mask with an explicit stack.
func components(mask []bool, w, h int) []component {
	visited := make([]bool, w*h)
	var out []component
	var stack []int
	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}
		minX, minY := start%w, start/w
		maxX, maxY := minX, minY
		visited[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := i%w, i/w
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)

			for _, n := range [4][2]int{{x + 1, y}, {x - 1, y}, {x, y + 1}, {x, y - 1}} {
				nx, ny := n[0], n[1]
				if nx < 0 || nx >= w || ny < 0 || ny >= h {
					continue
				}
				j := ny*w + nx
				if mask[j] && !visited[j] {
					visited[j] = true
					stack = append(stack, j)
				}
			}
		}
		out = append(out, component{rect: image.Rect(minX, minY, maxX+1, maxY+1)})
	}
	return out
}
