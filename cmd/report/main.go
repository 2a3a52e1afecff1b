// Command report renders charts for a persisted session: an interactive
// HTML page of per-gate scores and a PNG timeline.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/framewise/framewise/internal/report"
	"github.com/framewise/framewise/internal/session"
	"github.com/framewise/framewise/internal/version"
)

func main() {
	var dbPath string
	var sessionID string
	var outDir string
	var showVersion bool

	flag.StringVar(&dbPath, "db", "sessions.db", "path to session sqlite db")
	flag.StringVar(&sessionID, "session", "", "session ID (default: most recent)")
	flag.StringVar(&outDir, "out", "reports", "output directory")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version.String())
		return
	}

	db, err := session.Open(dbPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()
	store := session.NewStore(db)

	if sessionID == "" {
		sessions, err := store.ListSessions()
		if err != nil {
			log.Fatalf("list sessions: %v", err)
		}
		if len(sessions) == 0 {
			log.Fatalf("no sessions in %s", dbPath)
		}
		sessionID = sessions[0].ID
	}

	sess, err := store.GetSession(sessionID)
	if err != nil {
		log.Fatalf("get session: %v", err)
	}
	frames, err := store.FramesBySession(sessionID)
	if err != nil {
		log.Fatalf("load frames: %v", err)
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	htmlPath := filepath.Join(outDir, fmt.Sprintf("session_%s_gates.html", sessionID))
	f, err := os.Create(htmlPath)
	if err != nil {
		log.Fatalf("create %s: %v", htmlPath, err)
	}
	if err := report.WriteGateChartHTML(f, sess, frames); err != nil {
		f.Close()
		log.Fatalf("render gate chart: %v", err)
	}
	f.Close()

	pngPath := filepath.Join(outDir, fmt.Sprintf("session_%s_timeline.png", sessionID))
	if err := report.SaveTimelinePNG(pngPath, sess, frames); err != nil {
		log.Fatalf("render timeline: %v", err)
	}

	sum, err := store.Summarize(sessionID)
	if err != nil {
		log.Fatalf("summarize: %v", err)
	}
	fmt.Printf("session %s: %d frames, %d passed all gates, mean score %.3f\n",
		sessionID, sum.FrameCount, sum.PassedCount, sum.MeanScore)
	fmt.Printf("wrote %s\n", htmlPath)
	fmt.Printf("wrote %s\n", pngPath)
}
