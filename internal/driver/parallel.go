package driver

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"borrowck/internal/observ"
)

// ListMIRFiles возвращает отсортированный список всех *.mir файлов в директории
func ListMIRFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".mir") {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// DirResult bundles per-file results with the merged run timer.
type DirResult struct {
	Results []FileResult
	// Timing merges every worker's phase timer; nil unless timings are enabled.
	Timing *observ.Timer
}

// HasErrors reports whether any file produced an error-severity diagnostic.
func (r *DirResult) HasErrors() bool {
	for i := range r.Results {
		if r.Results[i].Bag != nil && r.Results[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// CheckDir checks every .mir file under dir in parallel.
func CheckDir(ctx context.Context, dir string, opts Options) (*DirResult, error) {
	files, err := ListMIRFiles(dir)
	if err != nil {
		return nil, err
	}
	return CheckFiles(ctx, files, opts)
}

// CheckPath checks a single .mir file or a directory tree of them.
func CheckPath(ctx context.Context, path string, opts Options) (*DirResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return CheckDir(ctx, path, opts)
	}
	return CheckFiles(ctx, []string{path}, opts)
}

// CheckFiles checks the given files in parallel. Results keep the input
// order regardless of which worker finished first, so a parallel run
// renders the same merged output as a sequential one.
func CheckFiles(ctx context.Context, files []string, opts Options) (*DirResult, error) {
	out := &DirResult{Results: make([]FileResult, len(files))}
	if len(files) == 0 {
		return out, nil
	}

	for i, path := range files {
		publish(opts.Sink, ProgressEvent{Path: path, Index: i, Total: len(files), Stage: StageQueued})
	}

	// Настраиваем параллелизм
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))

	for i, path := range files {
		g.Go(func(i int, path string) func() error {
			return func() error {
				// Проверка отмены
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}

				// Сохраняем результат, индекс i уникален для каждой горутины
				out.Results[i] = *checkOne(path, i, len(files), opts)
				return nil
			}
		}(i, path))
	}

	if err := g.Wait(); err != nil {
		return out, err
	}

	if opts.EnableTimings {
		run := observ.NewTimer()
		for i := range out.Results {
			run.Merge(out.Results[i].timer)
		}
		out.Timing = run
	}

	return out, nil
}
