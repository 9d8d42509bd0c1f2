// Package status serves debug endpoints for a running render.
package status

import (
	"fmt"
	"net/http"
	"sync"
	"time"
)

type HealthzHandler struct {
}

func NewHealthz() *HealthzHandler {
	return &HealthzHandler{}
}

func (h *HealthzHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("200 OK"))
}

// Progress tracks how far a render has come.  It is safe for concurrent use.
type Progress struct {
	now func() time.Time

	mu        sync.Mutex
	scene     string
	started   time.Time
	rowsDone  int
	rowsTotal int
}

func NewProgress(scene string) *Progress {
	return newProgressWithClock(scene, time.Now)
}

func newProgressWithClock(scene string, now func() time.Time) *Progress {
	return &Progress{
		now:     now,
		scene:   scene,
		started: now(),
	}
}

// Update has the signature of render.ProgressFunction.
func (p *Progress) Update(rowsDone, rowsTotal int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rowsDone = rowsDone
	p.rowsTotal = rowsTotal
}

func (p *Progress) Get() (rowsDone, rowsTotal int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rowsDone, p.rowsTotal
}

func (p *Progress) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	scene, done, total := p.scene, p.rowsDone, p.rowsTotal
	elapsed := p.now().Sub(p.started)
	p.mu.Unlock()

	percent := 0
	if total > 0 {
		percent = 100 * done / total
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "scene: %s\n", scene)
	fmt.Fprintf(w, "rows: %d/%d (%d%%)\n", done, total, percent)
	fmt.Fprintf(w, "elapsed: %v\n", elapsed.Round(time.Second))
}

// RegisterHandlers installs the debug endpoints on mux.
func RegisterHandlers(mux *http.ServeMux, p *Progress) {
	mux.Handle("/healthz", NewHealthz())
	mux.Handle("/readyz", NewHealthz())
	mux.Handle("/progressz", p)
}
