package testcase

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shibukawa/ctemock"
)

// Options controls case execution.
type Options struct {
	// Parallel is the number of cases run at once. 0 means the CPU count.
	Parallel int
	// Timeout bounds a single case.
	Timeout time.Duration
	// Strict fails cases whose mock tables are not referenced.
	Strict bool
	// Ordered compares result rows by position.
	Ordered bool
	// RunPattern keeps only cases whose name starts with it.
	RunPattern string
}

// DefaultOptions returns the default execution options.
func DefaultOptions() *Options {
	return &Options{
		Parallel: runtime.NumCPU(),
		Timeout:  2 * time.Minute,
		Ordered:  true,
	}
}

// Result is the outcome of one case.
type Result struct {
	Case     *Case
	Success  bool
	Duration time.Duration
	// SQL is the statement after the mocks were spliced in, if it got that far.
	SQL   string
	Error error
}

// Kind returns the failure classification of the result.
func (r Result) Kind() FailureKind {
	return ClassifyFailure(r.Error)
}

// Summary collects the results of a run in discovery order.
type Summary struct {
	RunID         string
	TotalTests    int
	PassedTests   int
	FailedTests   int
	TotalDuration time.Duration
	Results       []Result
}

// Runner executes case files in parallel.
type Runner struct {
	executor   *Executor
	workerPool chan struct{} // semaphore
	options    *Options
	logger     *slog.Logger
}

// NewRunner creates a runner for db.
func NewRunner(db *sql.DB, options *Options) *Runner {
	if options == nil {
		options = DefaultOptions()
	}

	parallel := options.Parallel
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}

	return &Runner{
		executor:   NewExecutor(db, options.Strict, options.Ordered),
		workerPool: make(chan struct{}, parallel),
		options:    options,
		logger:     slog.Default(),
	}
}

// SetLogger sets the logger used for warnings and progress.
func (r *Runner) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}

	r.logger = logger
	r.executor.SetLogger(logger)
}

// RunDir discovers and runs every case file under dir.
func (r *Runner) RunDir(ctx context.Context, dir string) (*Summary, error) {
	files, err := Discover(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to find case files: %w", err)
	}

	return r.RunFiles(ctx, files)
}

// RunFiles parses and runs the given case files. A file that cannot be parsed
// is reported as a failed definition result instead of aborting the run.
func (r *Runner) RunFiles(ctx context.Context, files []string) (*Summary, error) {
	var (
		cases  []*Case
		broken []Result
	)

	for _, path := range files {
		f, err := ParseFile(path)
		if err != nil {
			r.logger.Error("failed to parse case file", slog.String("file", path), slog.Any("error", err))
			broken = append(broken, Result{
				Case:  &Case{Name: "(parse)", File: path},
				Error: definitionFailure(err),
			})

			continue
		}

		for _, c := range f.Cases {
			if r.options.RunPattern == "" || strings.HasPrefix(c.Name, r.options.RunPattern) {
				cases = append(cases, c)
			}
		}
	}

	if len(cases) == 0 && len(broken) == 0 {
		if r.options.RunPattern != "" {
			return nil, fmt.Errorf("%w: %s", ctemock.ErrNoTestCasesFound, r.options.RunPattern)
		}

		return nil, ctemock.ErrNoTestCasesFound
	}

	r.logger.Debug("running cases", slog.Int("cases", len(cases)), slog.Int("files", len(files)))

	summary := r.RunCases(ctx, cases)
	summary.Results = append(broken, summary.Results...)
	summary.TotalTests += len(broken)
	summary.FailedTests += len(broken)

	return summary, nil
}

// RunCases executes cases in parallel and returns their results in the given
// order.
func (r *Runner) RunCases(ctx context.Context, cases []*Case) *Summary {
	summary := &Summary{
		RunID:      uuid.NewString(),
		TotalTests: len(cases),
		Results:    make([]Result, len(cases)),
	}

	startTime := time.Now()

	var wg sync.WaitGroup

	for i, c := range cases {
		wg.Add(1)

		go func(i int, c *Case) {
			defer wg.Done()

			summary.Results[i] = r.executeWithTimeout(ctx, c)
		}(i, c)
	}

	wg.Wait()

	for _, result := range summary.Results {
		if result.Success {
			summary.PassedTests++
		} else {
			summary.FailedTests++
		}
	}

	summary.TotalDuration = time.Since(startTime)

	return summary
}

// executeWithTimeout executes a single case holding a worker slot.
func (r *Runner) executeWithTimeout(ctx context.Context, c *Case) Result {
	select {
	case r.workerPool <- struct{}{}:
		defer func() { <-r.workerPool }()
	case <-ctx.Done():
		return Result{Case: c, Error: executionFailure(ctx.Err())}
	}

	caseCtx := ctx
	if r.options.Timeout > 0 {
		var cancel context.CancelFunc

		caseCtx, cancel = context.WithTimeout(ctx, r.options.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	execution, err := r.executor.Execute(caseCtx, c)

	result := Result{
		Case:     c,
		Success:  err == nil,
		Duration: time.Since(startTime),
		Error:    err,
	}
	if execution != nil {
		result.SQL = execution.SQL
	}

	return result
}
