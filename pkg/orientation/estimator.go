// Package orientation turns gyroscope samples into rotation reports for
// the 3D preview.
//
// Each report is the instantaneous displacement rotation derived from the
// latest angular-rate sample scaled by elapsed time. Reports are not
// composed with previous ones into a running attitude; the preview
// consumes displacements.
package orientation

import (
	"sync"
	"time"

	"github.com/Adam-Vandervorst/pithon/pkg/telemetry"
)

// Report is one orientation update: rotation magnitude in degrees and the
// axis-angle rotation vector it was derived from.
type Report struct {
	Degrees float64 `json:"degrees"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// Estimator maintains the last-sample timestamp and the latest rotation.
type Estimator struct {
	mu      sync.Mutex
	last    time.Time
	current quat
	report  Report
	now     func() time.Time
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) func(*Estimator) {
	return func(e *Estimator) {
		e.now = now
	}
}

// NewEstimator returns an estimator awaiting its first sample.
func NewEstimator(options ...func(*Estimator)) *Estimator {
	e := &Estimator{now: time.Now}
	for _, option := range options {
		option(e)
	}
	return e
}

// Update feeds one sample. The first sample only seeds the reference
// timestamp and returns ok=false; every later sample produces a report.
func (e *Estimator) Update(s telemetry.Sample) (Report, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if e.last.IsZero() {
		e.last = now
		return Report{}, false
	}

	dt := now.Sub(e.last).Seconds()
	e.current = fromEulerZYZ(float64(s.GX)*dt, float64(s.GY)*dt, float64(s.GZ)*dt)
	x, y, z := e.current.rotationVector()

	angle := vecNorm(x, y, z)
	e.report = Report{Degrees: degrees(angle), X: x, Y: y, Z: z}
	e.last = now
	return e.report, true
}

// Last returns the most recent report.
func (e *Estimator) Last() Report {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.report
}
