package pipeline

import (
	"io"
	"log"
	"sync"
)

var (
	dbgMu  sync.RWMutex
	dbgLog *log.Logger
)

// SetDebugWriter enables per-frame trace logging to w. Pass nil to
// disable. Off by default; the trace is far too chatty for production.
func SetDebugWriter(w io.Writer) {
	dbgMu.Lock()
	defer dbgMu.Unlock()
	if w == nil {
		dbgLog = nil
		return
	}
	dbgLog = log.New(w, "[pipeline] ", log.LstdFlags|log.Lmicroseconds)
}

func debugf(format string, args ...interface{}) {
	dbgMu.RLock()
	l := dbgLog
	dbgMu.RUnlock()
	if l != nil {
		l.Printf(format, args...)
	}
}
