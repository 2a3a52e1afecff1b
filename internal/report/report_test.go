package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framewise/framewise/internal/session"
)

func testFrames(n int) []*session.FrameRecord {
	frames := make([]*session.FrameRecord, n)
	for i := range frames {
		frames[i] = &session.FrameRecord{
			SessionID:        "s1",
			Seq:              uint64(i + 1),
			CapturedAt:       int64(i) * 33_000_000, // ~30fps
			AspectScore:      1.0,
			FramingScore:     0.8,
			PositionScore:    0.7,
			CompressionScore: 0.9,
			PoseScore:        0.95,
			MeanScore:        0.87,
		}
	}
	return frames
}

func testSession() *session.Session {
	return &session.Session{
		ID:               "s1",
		ReferenceShot:    "full shot",
		ReferenceFocalMM: 24,
		AspectRatio:      0.75,
	}
}

func TestWriteGateChartHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteGateChartHTML(&buf, testSession(), testFrames(10)))

	html := buf.String()
	assert.Contains(t, html, "aspect_ratio")
	assert.Contains(t, html, "framing")
	assert.Contains(t, html, "position")
	assert.Contains(t, html, "compression")
	assert.Contains(t, html, "pose")
	assert.Contains(t, html, "mean")
	assert.Contains(t, html, "Gate scores per frame")
}

func TestWriteGateChartHTMLEmptySession(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := WriteGateChartHTML(&buf, testSession(), nil)
	assert.Error(t, err)
}

func TestSaveTimelinePNG(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "timeline.png")
	require.NoError(t, SaveTimelinePNG(path, testSession(), testFrames(10)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestSaveTimelinePNGEmptySession(t *testing.T) {
	t.Parallel()

	err := SaveTimelinePNG(filepath.Join(t.TempDir(), "x.png"), testSession(), nil)
	assert.Error(t, err)
}
