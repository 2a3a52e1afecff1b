package margins

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framewise/framewise/internal/geom"
)

func testConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Perfect:          0.05,
		Good:             0.10,
		Minor:            0.15,
		BottomCropped:    -0.10,
		BottomDeviation:  0.15,
		HorizontalWeight: 0.4,
		VerticalWeight:   0.3,
		BottomWeight:     0.3,
	}
}

func TestCompute(t *testing.T) {
	t.Parallel()

	box := geom.BoundingBox{MinX: 100, MinY: 200, MaxX: 500, MaxY: 900}
	m := Compute(box, 1000, 1000)

	assert.InDelta(t, 0.10, m.Left, 1e-9)
	assert.InDelta(t, 0.50, m.Right, 1e-9)
	assert.InDelta(t, 0.20, m.Top, 1e-9)
	assert.InDelta(t, 0.10, m.Bottom, 1e-9)

	// Margins plus the box extents reconstruct the frame in each axis.
	assert.InDelta(t, 1.0, m.Left+m.Right+box.Width()/1000, 1e-9)
	assert.InDelta(t, 1.0, m.Top+m.Bottom+box.Height()/1000, 1e-9)
}

func TestComputeNegativeMargins(t *testing.T) {
	t.Parallel()

	// Box extends past the left and bottom edges.
	box := geom.BoundingBox{MinX: -50, MinY: 100, MaxX: 400, MaxY: 1100}
	m := Compute(box, 1000, 1000)

	assert.True(t, m.Left < 0)
	assert.True(t, m.Bottom < 0)
	assert.True(t, m.LeftOut())
	assert.True(t, m.BottomOut())
	assert.False(t, m.RightOut())
	assert.Equal(t, 2, m.OutOfFrameCount())
}

func TestClampedBounds(t *testing.T) {
	t.Parallel()

	// Pathological box far outside the frame still clamps to [-0.5, 0.5].
	box := geom.BoundingBox{MinX: -5000, MinY: -5000, MaxX: 9000, MaxY: 9000}
	c := Compute(box, 1000, 1000).Clamped()

	for _, v := range []float64{c.Left, c.Right, c.Top, c.Bottom} {
		assert.GreaterOrEqual(t, v, -0.5)
		assert.LessOrEqual(t, v, 0.5)
	}
}

func TestVerticalPosition(t *testing.T) {
	t.Parallel()

	t.Run("centered", func(t *testing.T) {
		m := Margins{Top: 0.2, Bottom: 0.2}
		assert.InDelta(t, 0.5, m.VerticalPosition(), 1e-9)
	})

	t.Run("near top", func(t *testing.T) {
		m := Margins{Top: 0.1, Bottom: 0.3}
		assert.InDelta(t, 0.25, m.VerticalPosition(), 1e-9)
	})

	t.Run("degenerate margins fall back to center", func(t *testing.T) {
		m := Margins{Top: 0, Bottom: 0}
		assert.InDelta(t, 0.5, m.VerticalPosition(), 1e-9)
	})
}

func TestHighAngle(t *testing.T) {
	t.Parallel()

	assert.True(t, Margins{Top: 0.1, Bottom: 0.3}.HighAngle())
	assert.False(t, Margins{Top: 0.3, Bottom: 0.1}.HighAngle())
	assert.True(t, Margins{Top: 0.3, Bottom: 0.1}.LowAngle())
}

func TestLadder(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(testConfig())

	cases := []struct {
		name   string
		drift  float64
		status BalanceStatus
		score  float64
	}{
		{"perfect", 0.02, StatusPerfect, 0.95},
		{"good", 0.07, StatusGood, 0.85},
		{"minor", 0.12, StatusNeedsMinor, 0.70},
		{"adjustment", 0.20, StatusNeedsAdjustment, 0.65},
		{"adjustment floor", 0.60, StatusNeedsAdjustment, 0.50},
		{"negative drift symmetric", -0.07, StatusGood, 0.85},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, score := a.ladder(tc.drift)
			assert.Equal(t, tc.status, status)
			assert.InDelta(t, tc.score, score, 1e-9)
		})
	}
}

func TestStepsForPercent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, StepsNone, StepsForPercent(3))
	assert.Equal(t, StepsHalf, StepsForPercent(7))
	assert.Equal(t, StepsOne, StepsForPercent(15))
	assert.Equal(t, StepsTwo, StepsForPercent(25))
	assert.Equal(t, StepsThree, StepsForPercent(35))
	assert.Equal(t, StepsFourPlus, StepsForPercent(55))
}

func TestTiltDegrees(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 2, TiltDegrees(3))
	assert.Equal(t, 5, TiltDegrees(8))
	assert.Equal(t, 8, TiltDegrees(12))
	assert.Equal(t, 10, TiltDegrees(18))
	assert.Equal(t, 12, TiltDegrees(25))
	assert.Equal(t, 15, TiltDegrees(80)) // capped
}

func TestHorizontal(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(testConfig())

	t.Run("identical margins score perfect", func(t *testing.T) {
		m := Margins{Left: 0.2, Right: 0.2, Top: 0.1, Bottom: 0.1}
		hb := a.Horizontal(m, m)
		assert.Equal(t, StatusPerfect, hb.Status)
		assert.InDelta(t, 0.95, hb.Score, 1e-9)
		assert.Empty(t, hb.Direction)
	})

	t.Run("subject drifted right pans right", func(t *testing.T) {
		ref := Margins{Left: 0.2, Right: 0.2}
		curr := Margins{Left: 0.32, Right: 0.08}
		hb := a.Horizontal(curr, ref)
		require.Equal(t, StatusNeedsAdjustment, hb.Status)
		assert.Equal(t, "right", hb.Direction)
		assert.Equal(t, StepsTwo, hb.Steps)
	})

	t.Run("subject drifted left pans left", func(t *testing.T) {
		ref := Margins{Left: 0.2, Right: 0.2}
		curr := Margins{Left: 0.08, Right: 0.32}
		hb := a.Horizontal(curr, ref)
		assert.Equal(t, "left", hb.Direction)
	})

	t.Run("both sides cropped warns once", func(t *testing.T) {
		curr := Margins{Left: -0.05, Right: -0.08}
		hb := a.Horizontal(curr, Margins{Left: 0.2, Right: 0.2})
		assert.Contains(t, hb.Warning, "too close")
	})

	t.Run("single edge crop names the edge", func(t *testing.T) {
		curr := Margins{Left: -0.05, Right: 0.4}
		hb := a.Horizontal(curr, Margins{Left: 0.2, Right: 0.2})
		assert.Contains(t, hb.Warning, "left edge")
	})
}

func TestVertical(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(testConfig())

	t.Run("subject low with level angle tilts down", func(t *testing.T) {
		ref := Margins{Top: 0.2, Bottom: 0.2}
		curr := Margins{Top: 0.35, Bottom: 0.05}
		vb := a.Vertical(curr, ref)
		require.NotEqual(t, TiltNone, vb.Recommendation.Kind)
		assert.Equal(t, TiltDown, vb.Recommendation.Kind)
	})

	t.Run("high angle prefers lowering the camera", func(t *testing.T) {
		// Camera looks down (bottom margin dominates) while the subject
		// sits lower in frame than the reference.
		ref := Margins{Top: 0.10, Bottom: 0.40}
		curr := Margins{Top: 0.20, Bottom: 0.30}
		vb := a.Vertical(curr, ref)
		require.True(t, curr.HighAngle())
		require.Greater(t, vb.PositionDiff, 0.0)
		assert.Equal(t, LowerCamera, vb.Recommendation.Kind)
	})

	t.Run("subject high tilts up", func(t *testing.T) {
		ref := Margins{Top: 0.2, Bottom: 0.2}
		curr := Margins{Top: 0.05, Bottom: 0.35}
		vb := a.Vertical(curr, ref)
		assert.Equal(t, TiltUp, vb.Recommendation.Kind)
	})
}

func TestBottom(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(testConfig())
	ref := Margins{Bottom: 0.10}

	t.Run("crop overrides balance", func(t *testing.T) {
		ba := a.Bottom(Margins{Bottom: -0.12}, ref)
		assert.True(t, ba.Cropped)
		assert.Contains(t, ba.Message, "cropped")
	})

	t.Run("large positive deviation", func(t *testing.T) {
		ba := a.Bottom(Margins{Bottom: 0.30}, ref)
		assert.True(t, ba.TooMuch)
	})

	t.Run("large negative deviation", func(t *testing.T) {
		ba := a.Bottom(Margins{Bottom: -0.08}, ref)
		assert.True(t, ba.TooLittle)
		assert.False(t, ba.Cropped)
	})

	t.Run("within tolerance has no message", func(t *testing.T) {
		ba := a.Bottom(Margins{Bottom: 0.12}, ref)
		assert.Empty(t, ba.Message)
		assert.Equal(t, StatusPerfect, ba.Status)
	})
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	a := NewAnalyzer(testConfig())

	t.Run("identical margins blend to the perfect score", func(t *testing.T) {
		m := Margins{Left: 0.2, Right: 0.2, Top: 0.15, Bottom: 0.1}
		an := a.Evaluate(m, m)
		assert.InDelta(t, 0.95, an.Score, 1e-9)
		assert.Empty(t, an.Describe())
	})

	t.Run("score stays within unit interval", func(t *testing.T) {
		curr := Margins{Left: -0.4, Right: -0.4, Top: 0.6, Bottom: -0.9}
		ref := Margins{Left: 0.2, Right: 0.2, Top: 0.15, Bottom: 0.1}
		an := a.Evaluate(curr, ref)
		assert.GreaterOrEqual(t, an.Score, 0.0)
		assert.LessOrEqual(t, an.Score, 1.0)
		assert.False(t, math.IsNaN(an.Score))
	})

	t.Run("opposing crops produce one combined warning", func(t *testing.T) {
		curr := Margins{Left: -0.1, Right: -0.1, Top: 0.2, Bottom: 0.2}
		ref := Margins{Left: 0.2, Right: 0.2, Top: 0.2, Bottom: 0.2}
		an := a.Evaluate(curr, ref)
		assert.NotEmpty(t, an.CombinedCropWarning)
		assert.Equal(t, an.CombinedCropWarning, an.Describe())
	})

	t.Run("bottom crop outranks horizontal drift in description", func(t *testing.T) {
		curr := Margins{Left: 0.35, Right: 0.05, Top: 0.2, Bottom: -0.15}
		ref := Margins{Left: 0.2, Right: 0.2, Top: 0.2, Bottom: 0.1}
		an := a.Evaluate(curr, ref)
		assert.Contains(t, an.Describe(), "cropped")
	})
}
