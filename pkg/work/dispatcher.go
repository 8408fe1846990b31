// Package work runs per-file jobs on a bounded pool of workers.
package work

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fulmenhq/gousemin/pkg/logger"
)

// ExecutionResult represents the result of processing a work item
type ExecutionResult struct {
	Path     string        `json:"path"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
	Output   string        `json:"output,omitempty"`

	err error
}

// Err returns the error the item failed with.
func (r ExecutionResult) Err() error {
	return r.err
}

// ExecutionSummary provides a summary of the execution
type ExecutionSummary struct {
	TotalItems    int               `json:"total_items"`
	Successful    int               `json:"successful"`
	Failed        int               `json:"failed"`
	TotalDuration time.Duration     `json:"total_duration"`
	Workers       int               `json:"workers"`
	Results       []ExecutionResult `json:"results"`
}

// FirstError returns the error of the first failed item, in input order.
func (s *ExecutionSummary) FirstError() error {
	for _, r := range s.Results {
		if r.err != nil {
			return r.err
		}
	}
	return nil
}

// Merge overlays the results of a later phase on earlier, by path. Items
// the later phase never saw keep their earlier result. Counts are
// recomputed; TotalItems stays that of earlier.
func Merge(earlier, later *ExecutionSummary) *ExecutionSummary {
	if later == nil {
		return earlier
	}
	if earlier == nil {
		return later
	}
	byPath := make(map[string]ExecutionResult, len(later.Results))
	for _, r := range later.Results {
		byPath[r.Path] = r
	}
	out := &ExecutionSummary{
		TotalItems:    earlier.TotalItems,
		TotalDuration: earlier.TotalDuration + later.TotalDuration,
		Workers:       earlier.Workers,
		Results:       make([]ExecutionResult, 0, len(earlier.Results)),
	}
	for _, r := range earlier.Results {
		if l, ok := byPath[r.Path]; ok {
			r = l
		}
		if r.Success {
			out.Successful++
		} else {
			out.Failed++
		}
		out.Results = append(out.Results, r)
	}
	return out
}

// Func processes one item. The returned string is kept as the item output.
type Func func(ctx context.Context, path string) (string, error)

// DispatcherConfig configures the dispatcher
type DispatcherConfig struct {
	MaxWorkers int
	// Timeout bounds the whole run. Zero means five minutes.
	Timeout          time.Duration
	ProgressCallback func(result ExecutionResult)
}

// Dispatcher runs a Func over many items. A failing item does not stop
// the others.
type Dispatcher struct {
	config DispatcherConfig
}

// NewDispatcher creates a new work dispatcher
func NewDispatcher(config DispatcherConfig) *Dispatcher {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = runtime.NumCPU()
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	return &Dispatcher{config: config}
}

// Run calls fn for every path and reports the results in input order. The
// returned error is only set when ctx ends before every item ran.
func (d *Dispatcher) Run(ctx context.Context, paths []string, fn Func) (*ExecutionSummary, error) {
	logger.Debug(fmt.Sprintf("Starting %d work items with %d workers", len(paths), d.config.MaxWorkers))

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	results := make([]ExecutionResult, len(paths))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.config.MaxWorkers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := d.runOne(gctx, path, fn)
			results[i] = r

			if d.config.ProgressCallback != nil {
				mu.Lock()
				d.config.ProgressCallback(r)
				mu.Unlock()
			}
			return nil
		})
	}
	waitErr := g.Wait()

	summary := &ExecutionSummary{
		TotalItems:    len(paths),
		TotalDuration: time.Since(start),
		Workers:       d.config.MaxWorkers,
		Results:       results,
	}
	for i := range results {
		if results[i].Path == "" {
			// Never started
			results[i] = ExecutionResult{Path: paths[i], Error: "not run", err: waitErr}
		}
		if results[i].Success {
			summary.Successful++
		} else {
			summary.Failed++
		}
	}

	logger.Debug("Work complete",
		logger.Int("successful", summary.Successful),
		logger.Int("failed", summary.Failed),
		logger.Duration("duration", summary.TotalDuration))

	if waitErr != nil {
		return summary, fmt.Errorf("execution interrupted: %w", waitErr)
	}
	return summary, nil
}

func (d *Dispatcher) runOne(ctx context.Context, path string, fn Func) (r ExecutionResult) {
	start := time.Now()
	r.Path = path
	defer func() {
		if p := recover(); p != nil {
			r.err = fmt.Errorf("%s: panic: %v", path, p)
			r.Error = r.err.Error()
			r.Success = false
		}
		r.Duration = time.Since(start)
	}()

	out, err := fn(ctx, path)
	r.Output = out
	if err != nil {
		r.err = err
		r.Error = err.Error()
		// Callers report failures from the summary.
		logger.Debug("Work item failed", logger.String("file", path), logger.Err(err))
		return r
	}
	r.Success = true
	return r
}
