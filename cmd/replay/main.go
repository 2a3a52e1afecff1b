// Command replay feeds a recorded frame log through the evaluation
// engine and persists the committed results as a session.
//
// The log is JSON Lines: the first record carries the reference capture,
// every following record one frame's signals.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/framewise/framewise/internal/config"
	"github.com/framewise/framewise/internal/focal"
	"github.com/framewise/framewise/internal/gates"
	"github.com/framewise/framewise/internal/geom"
	"github.com/framewise/framewise/internal/pipeline"
	"github.com/framewise/framewise/internal/session"
	"github.com/framewise/framewise/internal/version"
)

// logLine is one record of the frame log.
type logLine struct {
	Type      string       `json:"type"` // "reference" or "frame"
	Seq       uint64       `json:"seq"`
	UnixMs    int64        `json:"unix_ms"`
	Keypoints [][3]float64 `json:"keypoints,omitempty"` // x, y, confidence
	Box       *boxLine     `json:"box,omitempty"`
	Pose      *poseLine    `json:"pose,omitempty"`
	Metadata  *metaLine    `json:"metadata,omitempty"`
	Depth     *depthLine   `json:"depth,omitempty"`

	// Reference records only.
	AspectRatio float64 `json:"aspect_ratio,omitempty"`
	FrontCamera bool    `json:"front_camera,omitempty"`
}

type boxLine struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

type poseLine struct {
	Accuracy   float64 `json:"accuracy"`
	Deviations []struct {
		Region  string  `json:"region"`
		Joint   string  `json:"joint"`
		Degrees float64 `json:"degrees"`
	} `json:"deviations,omitempty"`
}

type metaLine struct {
	EXIFFocal35mm int     `json:"exif_focal_35mm,omitempty"`
	NativeFocalMM float64 `json:"native_focal_mm,omitempty"`
	ZoomFactor    float64 `json:"zoom_factor,omitempty"`
}

type depthLine struct {
	Rows   int       `json:"rows"`
	Cols   int       `json:"cols"`
	Values []float64 `json:"values"`
}

func (l *logLine) signals() pipeline.Signals {
	sig := pipeline.Signals{
		Seq:       l.Seq,
		Timestamp: time.UnixMilli(l.UnixMs),
	}
	if len(l.Keypoints) > 0 {
		sig.Keypoints = make([]geom.Keypoint, len(l.Keypoints))
		for i, kp := range l.Keypoints {
			sig.Keypoints[i] = geom.Keypoint{X: kp[0], Y: kp[1], Confidence: kp[2]}
		}
	}
	if l.Box != nil {
		sig.Box = &geom.BoundingBox{MinX: l.Box.MinX, MinY: l.Box.MinY, MaxX: l.Box.MaxX, MaxY: l.Box.MaxY}
	}
	if l.Metadata != nil {
		sig.Metadata = focal.Metadata{
			EXIFFocal35mm: l.Metadata.EXIFFocal35mm,
			NativeFocalMM: l.Metadata.NativeFocalMM,
			ZoomFactor:    l.Metadata.ZoomFactor,
		}
	}
	if l.Depth != nil {
		sig.Depth = &focal.DepthGrid{Rows: l.Depth.Rows, Cols: l.Depth.Cols, Values: l.Depth.Values}
	}
	return sig
}

func (l *logLine) poseReport() *gates.PoseReport {
	if l.Pose == nil {
		return nil
	}
	report := &gates.PoseReport{Accuracy: l.Pose.Accuracy}
	for _, d := range l.Pose.Deviations {
		report.Deviations = append(report.Deviations, gates.JointDeviation{
			Region:  poseRegionFromName(d.Region),
			Joint:   d.Joint,
			Degrees: d.Degrees,
		})
	}
	return report
}

func poseRegionFromName(name string) gates.PoseRegion {
	switch name {
	case "shoulders":
		return gates.RegionShoulders
	case "face":
		return gates.RegionFace
	case "arms":
		return gates.RegionArms
	}
	return gates.RegionLegs
}

func main() {
	var logPath string
	var dbPath string
	var migrationsDir string
	var tuningPath string
	var difficulty float64
	var verbose bool
	var showVersion bool

	flag.StringVar(&logPath, "log", "", "path to JSONL frame log")
	flag.StringVar(&dbPath, "db", "sessions.db", "path to session sqlite db")
	flag.StringVar(&migrationsDir, "migrations", "internal/session/migrations", "path to migrations directory")
	flag.StringVar(&tuningPath, "tuning", "", "path to tuning config (default: built-in search)")
	flag.Float64Var(&difficulty, "difficulty", 1.0, "difficulty multiplier (>1 is easier)")
	flag.BoolVar(&verbose, "v", false, "log per-frame evaluation details")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.String())
		return
	}

	if logPath == "" {
		log.Fatalf("log must be provided")
	}

	var cfg *config.TuningConfig
	if tuningPath != "" {
		var err error
		cfg, err = config.LoadTuningConfig(tuningPath)
		if err != nil {
			log.Fatalf("load tuning config: %v", err)
		}
	} else {
		cfg = config.MustLoadDefaultConfig()
	}

	f, err := os.Open(logPath)
	if err != nil {
		log.Fatalf("open log: %v", err)
	}
	defer f.Close()

	db, err := session.Open(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := db.MigrateUp(migrationsDir); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	store := session.NewStore(db)

	engine := pipeline.NewEngine(cfg)
	engine.SetDifficulty(difficulty)
	if verbose {
		pipeline.SetDebugWriter(os.Stderr)
	}

	results := make(chan pipeline.FrameResult, 1)
	engine.SetOutput(func(r pipeline.FrameResult) { results <- r })

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	var sessionID string
	var ref gates.Reference
	frames := 0
	evaluated := 0

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec logLine
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Fatalf("parse log line: %v", err)
		}

		switch rec.Type {
		case "reference":
			ref, err = pipeline.BuildReference(cfg, rec.signals(), rec.AspectRatio)
			if err != nil {
				log.Fatalf("build reference: %v", err)
			}
			engine.SetReference(ref)
			engine.SetAspectRatio(rec.AspectRatio)
			engine.SetCameraFacing(rec.FrontCamera)

			sessionID, err = store.StartSession(&session.Session{
				StartedAt:        time.UnixMilli(rec.UnixMs).UnixNano(),
				AspectRatio:      rec.AspectRatio,
				ReferenceShot:    ref.Shot.String(),
				ReferenceFocalMM: ref.Focal.MM,
				FrontCamera:      rec.FrontCamera,
				Difficulty:       difficulty,
			})
			if err != nil {
				log.Fatalf("start session: %v", err)
			}

		case "frame":
			if sessionID == "" {
				log.Fatalf("frame record before reference record")
			}
			sig := rec.signals()
			if sig.Metadata != (focal.Metadata{}) || sig.Depth != nil {
				engine.SubmitDepth(sig.Seq, sig.Timestamp, sig.Metadata, sig.Depth)
			}
			engine.SubmitPose(sig.Seq, sig.Timestamp, sig.Keypoints, rec.poseReport())
			engine.SubmitDetection(sig.Seq, sig.Timestamp, sig.Box)
			frames++

			// Replay is lock-step: wait for the frame to commit so the
			// latest-wins slot never drops one.
			select {
			case r := <-results:
				if err := store.RecordFrame(session.NewFrameRecord(sessionID, r)); err != nil {
					log.Fatalf("record frame %d: %v", r.Seq, err)
				}
				evaluated++
				if r.Feedback != nil {
					fmt.Printf("frame %d: %s\n", r.Seq, r.Feedback.Text)
				}
			case <-time.After(5 * time.Second):
				log.Fatalf("frame %d: no result", sig.Seq)
			}

		default:
			log.Fatalf("unknown record type %q", rec.Type)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("read log: %v", err)
	}
	if sessionID == "" {
		log.Fatalf("log contains no reference record")
	}

	if err := store.EndSession(sessionID, time.Now()); err != nil {
		log.Fatalf("end session: %v", err)
	}

	sum, err := store.Summarize(sessionID)
	if err != nil {
		log.Fatalf("summarize: %v", err)
	}
	fmt.Printf("session %s: %d/%d frames evaluated, %d passed all gates, mean score %.3f\n",
		sessionID, evaluated, frames, sum.PassedCount, sum.MeanScore)
}
