// Package build renders the static site: every page template goes through
// the component engine, optionally minified, and static assets are copied
// verbatim next to it.
package build

import (
	"sync"
	"time"
)

// PageResult is the outcome of rendering one page
type PageResult struct {
	Page     string
	Output   string
	Bytes    int
	Duration time.Duration
	Error    error
}

// BuildMetrics tracks page render counts and timings across builds
type BuildMetrics struct {
	TotalPages      int64
	RenderedPages   int64
	FailedPages     int64
	Builds          int64
	AverageDuration time.Duration
	TotalDuration   time.Duration
	mutex           sync.RWMutex
}

// NewBuildMetrics creates a new build metrics tracker
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{}
}

// RecordPage records a page result in the metrics
func (bm *BuildMetrics) RecordPage(result PageResult) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalPages++
	bm.TotalDuration += result.Duration

	if result.Error != nil {
		bm.FailedPages++
	} else {
		bm.RenderedPages++
	}

	bm.AverageDuration = bm.TotalDuration / time.Duration(bm.TotalPages)
}

// RecordBuild counts one site build
func (bm *BuildMetrics) RecordBuild() {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()
	bm.Builds++
}

// GetSnapshot returns a snapshot of current metrics
func (bm *BuildMetrics) GetSnapshot() BuildMetrics {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()
	return BuildMetrics{
		TotalPages:      bm.TotalPages,
		RenderedPages:   bm.RenderedPages,
		FailedPages:     bm.FailedPages,
		Builds:          bm.Builds,
		AverageDuration: bm.AverageDuration,
		TotalDuration:   bm.TotalDuration,
	}
}

// Reset resets all metrics
func (bm *BuildMetrics) Reset() {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalPages = 0
	bm.RenderedPages = 0
	bm.FailedPages = 0
	bm.Builds = 0
	bm.AverageDuration = 0
	bm.TotalDuration = 0
}

// GetSuccessRate returns the share of pages rendered without error as a percentage
func (bm *BuildMetrics) GetSuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	if bm.TotalPages == 0 {
		return 0.0
	}

	return float64(bm.RenderedPages) / float64(bm.TotalPages) * 100.0
}
