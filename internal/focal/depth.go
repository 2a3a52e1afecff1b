package focal

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DepthGrid is a dense monocular depth estimate, row-major with row 0 at
// the top of the frame. Values are relative disparities, not metric depth.
type DepthGrid struct {
	Rows, Cols int
	Values     []float64
}

// At returns the sample at (row, col), or NaN when out of range.
func (g *DepthGrid) At(row, col int) float64 {
	if row < 0 || row >= g.Rows || col < 0 || col >= g.Cols {
		return math.NaN()
	}
	return g.Values[row*g.Cols+col]
}

// DepthRegion is a subject region in grid coordinates, used as the
// foreground band when a detector box is available.
type DepthRegion struct {
	MinRow, MinCol, MaxRow, MaxCol int
}

// backgroundRowFraction bounds the band treated as scene background.
// Telephoto compression flattens the separation between this band and the
// subject, which is what the variance metric picks up.
const backgroundRowFraction = 0.25

// depthBand maps a foreground/background separation to a focal length
// guess. Larger separation reads wide-angle; near zero reads telephoto.
type depthBand struct {
	minRange   float64
	mm         int
	confidence float64
}

// Band edges are empirically tuned against relative-disparity output.
var depthBands = []depthBand{
	{minRange: 0.50, mm: 24, confidence: 0.8},
	{minRange: 0.30, mm: 35, confidence: 0.7},
	{minRange: 0.15, mm: 50, confidence: 0.6},
	{minRange: 0.05, mm: 70, confidence: 0.5},
	{minRange: 0, mm: 100, confidence: 0.4},
}

func (e *Estimator) fromDepth(grid *DepthGrid, box *DepthRegion) (Info, bool) {
	if grid.Rows <= 0 || grid.Cols <= 0 || len(grid.Values) < grid.Rows*grid.Cols {
		return Info{}, false
	}

	bgRows := int(float64(grid.Rows) * backgroundRowFraction)
	if bgRows < 1 {
		bgRows = 1
	}
	bg, bgOK := regionMean(grid, DepthRegion{MinRow: 0, MinCol: 0, MaxRow: bgRows, MaxCol: grid.Cols})

	fgRegion := centerRegion(grid)
	if box != nil {
		fgRegion = clampRegion(grid, *box)
	}
	fg, fgOK := regionMean(grid, fgRegion)

	if !bgOK || !fgOK {
		return Info{}, false
	}

	depthRange := math.Abs(bg - fg)
	for _, band := range depthBands {
		if depthRange >= band.minRange {
			return Info{MM: band.mm, Source: SourceDepthEstimate, Confidence: band.confidence}, true
		}
	}
	return Info{}, false
}

// centerRegion is the middle half of the grid in both axes, the foreground
// proxy when no detector box is available.
func centerRegion(g *DepthGrid) DepthRegion {
	return DepthRegion{
		MinRow: g.Rows / 4,
		MaxRow: 3 * g.Rows / 4,
		MinCol: g.Cols / 4,
		MaxCol: 3 * g.Cols / 4,
	}
}

func clampRegion(g *DepthGrid, r DepthRegion) DepthRegion {
	if r.MinRow < 0 {
		r.MinRow = 0
	}
	if r.MinCol < 0 {
		r.MinCol = 0
	}
	if r.MaxRow > g.Rows {
		r.MaxRow = g.Rows
	}
	if r.MaxCol > g.Cols {
		r.MaxCol = g.Cols
	}
	return r
}

// regionMean averages the finite samples in a region. Depth models emit
// the occasional NaN or Inf at the frame border; those samples are
// dropped, not substituted.
func regionMean(g *DepthGrid, r DepthRegion) (float64, bool) {
	// A box projected from outside the frame inverts after clamping.
	if r.MinRow >= r.MaxRow || r.MinCol >= r.MaxCol {
		return 0, false
	}
	samples := make([]float64, 0, (r.MaxRow-r.MinRow)*(r.MaxCol-r.MinCol))
	for row := r.MinRow; row < r.MaxRow; row++ {
		for col := r.MinCol; col < r.MaxCol; col++ {
			v := g.Values[row*g.Cols+col]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			samples = append(samples, v)
		}
	}
	if len(samples) == 0 {
		return 0, false
	}
	return stat.Mean(samples, nil), true
}
