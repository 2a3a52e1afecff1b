package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeypointVisible(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		kp      Keypoint
		visible bool
	}{
		{"confident in frame", Keypoint{X: 0.5, Y: 0.5, Confidence: 0.9}, true},
		{"below confidence floor", Keypoint{X: 0.5, Y: 0.5, Confidence: 0.2}, false},
		{"slightly clipped joint", Keypoint{X: -0.05, Y: 1.08, Confidence: 0.9}, true},
		{"far outside frame", Keypoint{X: -0.3, Y: 0.5, Confidence: 0.9}, false},
		{"exactly at floor", Keypoint{X: 0.5, Y: 0.5, Confidence: 0.3}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.visible, tc.kp.Visible(0.3))
		})
	}
}

func TestBoundingBox(t *testing.T) {
	t.Parallel()

	b := BoundingBox{MinX: 0.2, MinY: 0.1, MaxX: 0.8, MaxY: 0.9}
	assert.InDelta(t, 0.6, b.Width(), 1e-9)
	assert.InDelta(t, 0.8, b.Height(), 1e-9)
	assert.InDelta(t, 0.48, b.Area(), 1e-9)
	assert.InDelta(t, 0.5, b.CenterX(), 1e-9)
	assert.InDelta(t, 0.5, b.CenterY(), 1e-9)
	assert.True(t, b.Valid())
	assert.False(t, BoundingBox{}.Valid())
	assert.False(t, BoundingBox{MinX: 0.5, MinY: 0.5, MaxX: 0.4, MaxY: 0.6}.Valid())
}

func TestBoxFromKeypoints(t *testing.T) {
	t.Parallel()

	t.Run("spans visible points only", func(t *testing.T) {
		kps := []Keypoint{
			{X: 0.2, Y: 0.3, Confidence: 0.9},
			{X: 0.7, Y: 0.8, Confidence: 0.9},
			{X: 0.01, Y: 0.01, Confidence: 0.1}, // ignored
		}
		box, ok := BoxFromKeypoints(kps, 0.3)
		require.True(t, ok)
		assert.InDelta(t, 0.2, box.MinX, 1e-9)
		assert.InDelta(t, 0.7, box.MaxX, 1e-9)
		assert.InDelta(t, 0.3, box.MinY, 1e-9)
		assert.InDelta(t, 0.8, box.MaxY, 1e-9)
	})

	t.Run("no visible points", func(t *testing.T) {
		_, ok := BoxFromKeypoints([]Keypoint{{Confidence: 0.1}}, 0.3)
		assert.False(t, ok)
	})
}

func TestClampRatio(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.3, ClampRatio(0.3), 1e-9)
	assert.InDelta(t, 0.5, ClampRatio(2.7), 1e-9)
	assert.InDelta(t, -0.5, ClampRatio(-1.2), 1e-9)
}

func TestSafeDiv(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, SafeDiv(4, 2, 0), 1e-9)
	assert.InDelta(t, 0.5, SafeDiv(1, 0, 0.5), 1e-9)
	assert.InDelta(t, 0.5, SafeDiv(1, 1e-9, 0.5), 1e-9)
	assert.InDelta(t, -3.0, SafeDiv(3, -1, 0), 1e-9)
}

func TestFinite(t *testing.T) {
	t.Parallel()

	assert.True(t, Finite(1.5))
	assert.False(t, Finite(math.NaN()))
	assert.False(t, Finite(math.Inf(1)))
	assert.False(t, Finite(math.Inf(-1)))
}

func TestAt(t *testing.T) {
	t.Parallel()

	kps := []Keypoint{{X: 0.1, Confidence: 0.9}}
	assert.InDelta(t, 0.1, At(kps, 0).X, 1e-9)
	assert.Equal(t, Keypoint{}, At(kps, 5))
	assert.Equal(t, Keypoint{}, At(kps, -1))
}

func TestCountVisible(t *testing.T) {
	t.Parallel()

	kps := make([]Keypoint, WholeBodyCount)
	for i := FaceStart; i < FaceStart+40; i++ {
		kps[i] = Keypoint{X: 0.5, Y: 0.5, Confidence: 0.9}
	}
	assert.Equal(t, 40, CountVisible(kps, FaceStart, FaceCount, 0.3))
	assert.Equal(t, 0, CountVisible(kps, 0, BodyCount, 0.3))
	// Range past the slice end counts what exists.
	assert.Equal(t, 0, CountVisible(kps[:20], FaceStart, FaceCount, 0.3))
}

func TestAspectRatios(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "3:4", AspectRatioName(0.75))
	assert.Equal(t, "16:9", AspectRatioName(16.0/9.0))
	assert.Equal(t, "9:16", AspectRatioName(9.0/16.0))

	assert.True(t, AspectRatiosMatch(0.75, 0.75))
	assert.True(t, AspectRatiosMatch(0.75, 0.78))
	assert.False(t, AspectRatiosMatch(0.75, 16.0/9.0))
	assert.False(t, AspectRatiosMatch(9.0/16.0, 3.0/4.0))
}
