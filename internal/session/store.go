package session

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/framewise/framewise/internal/feedback"
	"github.com/framewise/framewise/internal/gates"
	"github.com/framewise/framewise/internal/pipeline"
)

// Session is one capture session against a single reference.
type Session struct {
	ID               string  `json:"session_id"`
	StartedAt        int64   `json:"started_at"`
	EndedAt          int64   `json:"ended_at,omitempty"`
	AspectRatio      float64 `json:"aspect_ratio"`
	ReferenceShot    string  `json:"reference_shot"`
	ReferenceFocalMM int     `json:"reference_focal_mm"`
	FrontCamera      bool    `json:"front_camera"`
	Difficulty       float64 `json:"difficulty"`
}

// FrameRecord is the persisted form of one committed frame evaluation.
type FrameRecord struct {
	SessionID        string  `json:"session_id"`
	Seq              uint64  `json:"seq"`
	CapturedAt       int64   `json:"captured_at"`
	AspectScore      float64 `json:"aspect_score"`
	FramingScore     float64 `json:"framing_score"`
	PositionScore    float64 `json:"position_score"`
	CompressionScore float64 `json:"compression_score"`
	PoseScore        float64 `json:"pose_score"`
	MeanScore        float64 `json:"mean_score"`
	AllPassed        bool    `json:"all_passed"`
	NoSubject        bool    `json:"no_subject"`
	FocalMM          int     `json:"focal_mm"`
	FocalSource      string  `json:"focal_source"`
	FeedbackAction   string  `json:"feedback_action,omitempty"`
	FeedbackMag      string  `json:"feedback_magnitude,omitempty"`
	FeedbackText     string  `json:"feedback_text,omitempty"`
}

// NewFrameRecord flattens a committed frame result for persistence.
func NewFrameRecord(sessionID string, r pipeline.FrameResult) FrameRecord {
	rec := FrameRecord{
		SessionID:        sessionID,
		Seq:              r.Seq,
		CapturedAt:       r.Timestamp.UnixNano(),
		AspectScore:      r.Evaluation.Results[gates.GateAspectRatio].Score,
		FramingScore:     r.Evaluation.Results[gates.GateFraming].Score,
		PositionScore:    r.Evaluation.Results[gates.GatePosition].Score,
		CompressionScore: r.Evaluation.Results[gates.GateCompression].Score,
		PoseScore:        r.Evaluation.Results[gates.GatePose].Score,
		MeanScore:        r.Evaluation.MeanScore(),
		AllPassed:        r.Evaluation.AllPassed(),
		NoSubject:        r.Evaluation.NoSubject,
		FocalMM:          r.Focal.MM,
		FocalSource:      string(r.Focal.Source),
	}
	if r.Feedback != nil {
		rec.FeedbackText = r.Feedback.Text
		rec.FeedbackMag = r.Feedback.Magnitude
		if r.Feedback.Kind == feedback.KindAction {
			rec.FeedbackAction = r.Feedback.Action.String()
		}
	}
	return rec
}

// GateScore returns the persisted score for a gate index.
func (f FrameRecord) GateScore(g gates.GateIndex) float64 {
	switch g {
	case gates.GateAspectRatio:
		return f.AspectScore
	case gates.GateFraming:
		return f.FramingScore
	case gates.GatePosition:
		return f.PositionScore
	case gates.GateCompression:
		return f.CompressionScore
	case gates.GatePose:
		return f.PoseScore
	}
	return 0
}

// Store provides persistence for sessions and frame evaluations.
type Store struct {
	db *DB
}

// NewStore creates a Store backed by the given database.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// StartSession inserts a new session row. If s.ID is empty a UUID is
// generated; if s.StartedAt is zero the current time is used. The
// session ID is returned.
func (s *Store) StartSession(sess *Session) (string, error) {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	if sess.StartedAt == 0 {
		sess.StartedAt = time.Now().UnixNano()
	}
	if sess.Difficulty <= 0 {
		sess.Difficulty = 1.0
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO sessions (
				session_id, started_at, ended_at,
				aspect_ratio, reference_shot, reference_focal_mm, front_camera, difficulty
			) VALUES (?, ?, NULL, ?, ?, ?, ?, ?)`,
			sess.ID, sess.StartedAt,
			sess.AspectRatio, sess.ReferenceShot, sess.ReferenceFocalMM, sess.FrontCamera, sess.Difficulty,
		)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return sess.ID, nil
}

// EndSession records the end timestamp of a session.
func (s *Store) EndSession(sessionID string, endedAt time.Time) error {
	return retryOnBusy(func() error {
		res, err := s.db.Exec(`UPDATE sessions SET ended_at = ? WHERE session_id = ?`,
			endedAt.UnixNano(), sessionID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("session %s not found", sessionID)
		}
		return nil
	})
}

// GetSession returns a single session by ID.
func (s *Store) GetSession(sessionID string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT session_id, started_at, ended_at,
		       aspect_ratio, reference_shot, reference_focal_mm, front_camera, difficulty
		FROM sessions
		WHERE session_id = ?`, sessionID)

	var sess Session
	var endedAt sql.NullInt64
	err := row.Scan(
		&sess.ID, &sess.StartedAt, &endedAt,
		&sess.AspectRatio, &sess.ReferenceShot, &sess.ReferenceFocalMM, &sess.FrontCamera, &sess.Difficulty,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	if endedAt.Valid {
		sess.EndedAt = endedAt.Int64
	}
	return &sess, nil
}

// ListSessions returns all sessions ordered by start time descending.
func (s *Store) ListSessions() ([]*Session, error) {
	rows, err := s.db.Query(`
		SELECT session_id, started_at, ended_at,
		       aspect_ratio, reference_shot, reference_focal_mm, front_camera, difficulty
		FROM sessions
		ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var sess Session
		var endedAt sql.NullInt64
		if err := rows.Scan(
			&sess.ID, &sess.StartedAt, &endedAt,
			&sess.AspectRatio, &sess.ReferenceShot, &sess.ReferenceFocalMM, &sess.FrontCamera, &sess.Difficulty,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if endedAt.Valid {
			sess.EndedAt = endedAt.Int64
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// RecordFrame persists one frame evaluation.
func (s *Store) RecordFrame(rec FrameRecord) error {
	return retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO frame_evaluations (
				session_id, seq, captured_at,
				aspect_score, framing_score, position_score, compression_score, pose_score,
				mean_score, all_passed, no_subject,
				focal_mm, focal_source, feedback_action, feedback_magnitude, feedback_text
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.SessionID, rec.Seq, rec.CapturedAt,
			rec.AspectScore, rec.FramingScore, rec.PositionScore, rec.CompressionScore, rec.PoseScore,
			rec.MeanScore, rec.AllPassed, rec.NoSubject,
			rec.FocalMM, rec.FocalSource,
			nullable(rec.FeedbackAction), nullable(rec.FeedbackMag), nullable(rec.FeedbackText),
		)
		return err
	})
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// FramesBySession returns all frame evaluations for a session ordered by
// sequence number.
func (s *Store) FramesBySession(sessionID string) ([]*FrameRecord, error) {
	rows, err := s.db.Query(`
		SELECT session_id, seq, captured_at,
		       aspect_score, framing_score, position_score, compression_score, pose_score,
		       mean_score, all_passed, no_subject,
		       focal_mm, focal_source, feedback_action, feedback_magnitude, feedback_text
		FROM frame_evaluations
		WHERE session_id = ?
		ORDER BY seq ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var frames []*FrameRecord
	for rows.Next() {
		var rec FrameRecord
		var action, magnitude, text sql.NullString
		if err := rows.Scan(
			&rec.SessionID, &rec.Seq, &rec.CapturedAt,
			&rec.AspectScore, &rec.FramingScore, &rec.PositionScore, &rec.CompressionScore, &rec.PoseScore,
			&rec.MeanScore, &rec.AllPassed, &rec.NoSubject,
			&rec.FocalMM, &rec.FocalSource, &action, &magnitude, &text,
		); err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		rec.FeedbackAction = action.String
		rec.FeedbackMag = magnitude.String
		rec.FeedbackText = text.String
		frames = append(frames, &rec)
	}
	return frames, rows.Err()
}

// SessionSummary aggregates a session's frame evaluations.
type SessionSummary struct {
	FrameCount  int     `json:"frame_count"`
	PassedCount int     `json:"passed_count"`
	MeanScore   float64 `json:"mean_score"`
}

// Summarize computes pass counts and the average composite score over a
// session's frames.
func (s *Store) Summarize(sessionID string) (*SessionSummary, error) {
	row := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN all_passed THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(mean_score), 0)
		FROM frame_evaluations
		WHERE session_id = ?`, sessionID)

	var sum SessionSummary
	if err := row.Scan(&sum.FrameCount, &sum.PassedCount, &sum.MeanScore); err != nil {
		return nil, fmt.Errorf("scan summary: %w", err)
	}
	return &sum, nil
}
