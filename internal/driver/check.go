// Package driver turns .mir module files into diagnostic bags. It owns
// everything outside the per-body analysis: file listing, decoding,
// validation, result caching, parallel scheduling, progress reporting,
// and phase timing.
package driver

import (
	"bytes"
	"fmt"
	"os"
	"slices"
	"time"

	"borrowck/internal/check"
	"borrowck/internal/diag"
	"borrowck/internal/mir"
	"borrowck/internal/observ"
	"borrowck/internal/source"
)

// Options настраивает пайплайн проверки для одного запуска.
type Options struct {
	// MaxDiagnostics caps each file's bag; non-positive means the default.
	MaxDiagnostics int
	// Jobs bounds worker goroutines in CheckDir; non-positive means GOMAXPROCS.
	Jobs int
	// NoWarnings drops warning and info diagnostics from the output.
	NoWarnings bool
	// WarningsAsErrors upgrades the warnings that survived NoWarnings.
	WarningsAsErrors bool
	// EnableTimings records per-phase timers and attaches timing diagnostics.
	EnableTimings bool
	// Disk, when set, reuses diagnostics cached on disk across runs.
	Disk *ResultCache
	// Mem, when set, short-circuits repeated checks within the process.
	Mem *MemCache
	// Sink, when set, receives per-file progress events.
	Sink ProgressSink
}

const defaultMaxDiagnostics = 100

func (o Options) maxDiag() int {
	if o.MaxDiagnostics <= 0 {
		return defaultMaxDiagnostics
	}
	return o.MaxDiagnostics
}

// FileResult holds everything the pipeline produced for one file.
type FileResult struct {
	Path   string
	Unit   *mir.Unit      // nil when the file did not load or decode
	Bag    *diag.Bag      // never nil
	Timing *observ.Report // set when timings are enabled
	Cached bool           // diagnostics were restored from a cache
	Err    error          // load, decode, or validation failure

	timer *observ.Timer
}

// CheckFile runs the pipeline over a single .mir file. Failures surface as
// I/O diagnostics in the bag and on FileResult.Err, so a caller rendering
// the bag reports them the same way it reports conflicts.
func CheckFile(path string, opts Options) *FileResult {
	publish(opts.Sink, ProgressEvent{Path: path, Total: 1, Stage: StageQueued})
	return checkOne(path, 0, 1, opts)
}

func checkOne(path string, index, total int, opts Options) *FileResult {
	var timer *observ.Timer
	if opts.EnableTimings {
		timer = observ.NewTimer()
	}
	begin := func(name string) func(note string) {
		if timer == nil {
			return func(string) {}
		}
		return timer.Begin(name)
	}
	started := time.Now()
	emit := func(stage ProgressStage, err error) {
		publish(opts.Sink, ProgressEvent{
			Path:    path,
			Index:   index,
			Total:   total,
			Stage:   stage,
			Elapsed: time.Since(started),
			Err:     err,
		})
	}

	res := &FileResult{Path: path, Bag: diag.NewBag(opts.maxDiag()), timer: timer}
	fail := func(err error, code diag.Code, msg string) *FileResult {
		res.Err = err
		res.Bag.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     code,
			Message:  msg,
			Primary:  source.Span{},
		})
		finish(res, opts)
		emit(StageError, err)
		return res
	}

	emit(StageDecode, nil)
	endLoad := begin("load_file")
	content, err := os.ReadFile(path)
	endLoad("")
	if err != nil {
		return fail(fmt.Errorf("load %s: %w", path, err),
			diag.IOLoadFileError, "failed to load file: "+err.Error())
	}

	endDecode := begin("decode")
	unit, err := mir.DecodeUnit(bytes.NewReader(content))
	if err != nil {
		endDecode("")
		return fail(fmt.Errorf("decode %s: %w", path, err),
			diag.IODecodeError, "failed to decode module file: "+err.Error())
	}
	funcs := unit.Module.SortedFuncs()
	endDecode(fmt.Sprintf("funcs=%d", len(funcs)))
	res.Unit = unit

	// Предупреждения от кеша добавляем после сохранения результата,
	// чтобы они не попали в сам кеш.
	var cacheNotes []diag.Diagnostic

	key := cacheKey(content, opts.maxDiag())
	if opts.Mem != nil || opts.Disk != nil {
		endLookup := begin("cache_lookup")
		cached, hit := opts.Mem.Get(path, key)
		hitSrc := "mem"
		if !hit && opts.Disk != nil {
			var readErr error
			cached, hit, readErr = opts.Disk.Get(key)
			if readErr != nil {
				cacheNotes = append(cacheNotes, diag.Diagnostic{
					Severity: diag.SevWarning,
					Code:     diag.IOCacheReadError,
					Message:  "failed to read cached result, reanalyzing: " + readErr.Error(),
					Primary:  source.Span{},
				})
				hit = false
			}
			if hit {
				hitSrc = "disk"
				opts.Mem.Put(path, key, cached)
			}
		}
		if hit {
			endLookup("hit " + hitSrc)
			for _, d := range cached {
				if !res.Bag.Add(d) {
					break
				}
			}
			res.Cached = true
			finish(res, opts)
			emit(StageDone, nil)
			return res
		}
		endLookup("miss")
	}

	endValidate := begin("validate")
	err = mir.Validate(unit.Module, unit.Types)
	endValidate("")
	if err != nil {
		return fail(fmt.Errorf("validate %s: %w", path, err),
			diag.IODecodeError, "invalid module: "+err.Error())
	}

	emit(StageAnalyze, nil)
	endAnalyze := begin("analyze")
	for _, f := range funcs {
		fb := check.Func(f, unit.Types, check.Options{MaxDiagnostics: opts.maxDiag()})
		for _, d := range fb.Items() {
			if !res.Bag.Add(d) {
				break
			}
		}
	}
	endAnalyze(fmt.Sprintf("diags=%d", res.Bag.Len()))

	if opts.Mem != nil || opts.Disk != nil {
		endStore := begin("cache_store")
		// Items() разделяет массив с bag: копируем перед сохранением.
		stored := slices.Clone(res.Bag.Items())
		opts.Mem.Put(path, key, stored)
		if opts.Disk != nil {
			if writeErr := opts.Disk.Put(key, path, stored); writeErr != nil {
				cacheNotes = append(cacheNotes, diag.Diagnostic{
					Severity: diag.SevWarning,
					Code:     diag.IOCacheWriteError,
					Message:  "failed to write result cache: " + writeErr.Error(),
					Primary:  source.Span{},
				})
			}
		}
		endStore("")
	}
	for _, d := range cacheNotes {
		res.Bag.Add(d)
	}

	finish(res, opts)
	emit(StageDone, nil)
	return res
}

// finish applies the output filters and, with timings on, attaches the
// per-file timing diagnostic. Runs on every path out of checkOne.
func finish(res *FileResult, opts Options) {
	if opts.NoWarnings {
		res.Bag.Filter(func(d diag.Diagnostic) bool {
			return d.Severity != diag.SevWarning && d.Severity != diag.SevInfo
		})
	}
	if opts.WarningsAsErrors {
		res.Bag.Transform(func(d diag.Diagnostic) diag.Diagnostic {
			if d.Severity == diag.SevWarning {
				d.Severity = diag.SevError
			}
			return d
		})
	}
	if res.timer != nil {
		rep := res.timer.Report()
		res.Timing = &rep
		appendTimingDiagnostic(res.Bag, timingPayload{
			Kind:    "file",
			Path:    res.Path,
			TotalMS: rep.TotalMS,
			Phases:  rep.Phases,
		})
	}
}
