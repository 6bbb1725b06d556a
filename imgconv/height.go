package imgconv

import (
	"image"
	"math"
	"sort"
	"sync"
)

const (
	heightRayCount  = 50
	percentileClamp = 0.95
)

// DeriveHeightMap integrates a converted normal map into a grayscale
// height map. Each pixel casts a fan of rays through the slope fields
// and accumulates the directional derivatives along them, the result
// is normalized over its full range. Columns are split between
// workers.
func DeriveHeightMap(normals *image.NRGBA, workers int) *image.Gray {
	w := normals.Bounds().Dx()
	h := normals.Bounds().Dy()

	dxField := make([]float64, w*h)
	dyField := make([]float64, w*h)
	for i := 0; i < w*h; i++ {
		dxField[i] = slope(normals.Pix[i*4+0])
		dyField[i] = slope(normals.Pix[i*4+1])
	}
	// tan blows up near the channel ends, cut the outliers
	clampToPercentile(dxField)
	clampToPercentile(dyField)

	rayLength := int(math.Ceil(math.Max(float64(w), float64(h)) * 0.004))

	heights := make([]float64, w*h)
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(firstColumn int) {
			defer wg.Done()
			for x := firstColumn; x < w; x += workers {
				for y := 0; y < h; y++ {
					heights[y*w+x] = heightAt(dxField, dyField, w, h, x, y, rayLength)
				}
			}
		}(worker)
	}
	wg.Wait()

	return normalizeToGray(heights, w, h)
}

// slope converts a normal channel back into the surface derivative it
// encodes.
func slope(c byte) float64 {
	return math.Tan(-(float64(c)/255*2 - 1) * (math.Pi / 2))
}

func clampToPercentile(field []float64) {
	if len(field) == 0 {
		return
	}
	sorted := append([]float64(nil), field...)
	sort.Float64s(sorted)
	lo := sorted[int(float64(len(sorted))*(1-percentileClamp))]
	hi := sorted[int(float64(len(sorted))*percentileClamp)]
	for i, v := range field {
		if v < lo {
			field[i] = lo
		} else if v > hi {
			field[i] = hi
		}
	}
}

func heightAt(dxField, dyField []float64, w, h, px, py, rayLength int) float64 {
	total := 0.0
	for ray := 0; ray < heightRayCount; ray++ {
		angle := float64(ray) * (2 * math.Pi / heightRayCount)
		dirX, dirY := math.Sin(angle), math.Cos(angle)

		raySum := 0.0
		for i := 0; i < rayLength; i++ {
			x := clampFloat(float64(px)+dirX*float64(i), 0, float64(w-1))
			y := clampFloat(float64(py)+dirY*float64(i), 0, float64(h-1))
			raySum += (dirX*bilinear(dxField, w, x, y) - dirY*bilinear(dyField, w, x, y)) / 2
		}
		total += raySum / float64(rayLength*2+1)
	}
	return -total / heightRayCount
}

func bilinear(field []float64, w int, x, y float64) float64 {
	x0, y0 := math.Floor(x), math.Floor(y)
	x1, y1 := math.Ceil(x), math.Ceil(y)
	dx, dy := x-x0, y-y0

	c00 := field[int(y0)*w+int(x0)]
	c10 := field[int(y0)*w+int(x1)]
	c01 := field[int(y1)*w+int(x0)]
	c11 := field[int(y1)*w+int(x1)]

	top := c00 + (c10-c00)*dx
	bottom := c01 + (c11-c01)*dx
	return top + (bottom-top)*dy
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

func normalizeToGray(heights []float64, w, h int) *image.Gray {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range heights {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	if !(hi-lo > 0) {
		return img
	}
	for i, v := range heights {
		img.Pix[i] = byte((v - lo) / (hi - lo) * 255)
	}
	return img
}
