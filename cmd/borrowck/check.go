package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"borrowck/internal/diag"
	"borrowck/internal/diagfmt"
	"borrowck/internal/driver"
	"borrowck/internal/source"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file.mir|directory>",
	Short: "Analyze ownership conflicts in a compiled module or directory",
	Long:  `Check runs ownership analysis over a single .mir module or every *.mir file within a directory and reports conflicts as diagnostics`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCheck,
}

// init registers CLI flags for the check command used by runCheck.
// Defaults for most of them can also come from the [check] section of the
// nearest borrowck.toml; an explicitly set flag always wins.
func init() {
	checkCmd.Flags().String("format", "pretty", "output format (pretty|json|sarif|short)")
	checkCmd.Flags().Int("jobs", 0, "max parallel workers for directory processing (0=auto)")
	checkCmd.Flags().Bool("no-warnings", false, "ignore warnings in diagnostics")
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
	checkCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	checkCmd.Flags().Bool("suggest", false, "include fix suggestions in output")
	checkCmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
	checkCmd.Flags().Bool("disk-cache", false, "reuse analysis results cached on disk")
	checkCmd.Flags().String("ui", "auto", "interactive progress display (auto|on|off)")
}

// checkSettings is the merged view of persistent flags, check flags and
// manifest defaults.
type checkSettings struct {
	format           string
	jobs             int
	noWarnings       bool
	warningsAsErrors bool
	withNotes        bool
	suggest          bool
	fullPath         bool
	diskCache        bool
	ui               uiMode
	maxDiagnostics   int
	showTimings      bool
	quiet            bool
	useColor         bool
}

// resolveCheckSettings собирает настройки команды: флаги, затем значения
// из манифеста для флагов, которые не были заданы явно.
func resolveCheckSettings(cmd *cobra.Command) (checkSettings, error) {
	var s checkSettings

	man, _, err := loadManifest(".")
	if err != nil {
		return s, err
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return s, fmt.Errorf("failed to get format flag: %w", err)
	}
	if !cmd.Flags().Changed("format") && man.defines("format") {
		format = man.Config.Check.Format
	}
	switch format {
	case "pretty", "json", "sarif", "short":
	default:
		return s, fmt.Errorf("unknown format: %s", format)
	}
	s.format = format

	s.jobs, err = cmd.Flags().GetInt("jobs")
	if err != nil {
		return s, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if !cmd.Flags().Changed("jobs") && man.defines("jobs") {
		s.jobs = man.Config.Check.Jobs
	}

	s.noWarnings, err = cmd.Flags().GetBool("no-warnings")
	if err != nil {
		return s, fmt.Errorf("failed to get no-warnings flag: %w", err)
	}
	if !cmd.Flags().Changed("no-warnings") && man.defines("no_warnings") {
		s.noWarnings = man.Config.Check.NoWarnings
	}

	s.warningsAsErrors, err = cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return s, fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}
	if !cmd.Flags().Changed("warnings-as-errors") && man.defines("warnings_as_errors") {
		s.warningsAsErrors = man.Config.Check.WarningsAsErrors
	}

	if s.noWarnings && s.warningsAsErrors {
		return s, fmt.Errorf("no-warnings and warnings-as-errors flags cannot be used together")
	}

	s.withNotes, err = cmd.Flags().GetBool("with-notes")
	if err != nil {
		return s, fmt.Errorf("failed to get with-notes flag: %w", err)
	}
	if !cmd.Flags().Changed("with-notes") && man.defines("with_notes") {
		s.withNotes = man.Config.Check.WithNotes
	}

	s.suggest, err = cmd.Flags().GetBool("suggest")
	if err != nil {
		return s, fmt.Errorf("failed to get suggest flag: %w", err)
	}
	if !cmd.Flags().Changed("suggest") && man.defines("suggest") {
		s.suggest = man.Config.Check.Suggest
	}

	s.fullPath, err = cmd.Flags().GetBool("fullpath")
	if err != nil {
		return s, fmt.Errorf("failed to get fullpath flag: %w", err)
	}

	s.diskCache, err = cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return s, fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	if !cmd.Flags().Changed("disk-cache") && man.defines("disk_cache") {
		s.diskCache = man.Config.Check.DiskCache
	}

	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return s, fmt.Errorf("failed to get ui flag: %w", err)
	}
	if !cmd.Flags().Changed("ui") && man.defines("ui") {
		uiValue = man.Config.Check.UI
	}
	s.ui, err = readUIMode(uiValue)
	if err != nil {
		return s, err
	}

	s.maxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return s, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}

	s.showTimings, err = cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return s, fmt.Errorf("failed to get timings flag: %w", err)
	}

	s.quiet, err = cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return s, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	colorFlag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return s, fmt.Errorf("failed to get color flag: %w", err)
	}
	s.useColor = colorFlag == "on" || (colorFlag == "auto" && isTerminal(os.Stdout))

	return s, nil
}

// runCheck executes the "check" command: it resolves settings, runs the
// analysis over the provided path (single file or directory), renders the
// diagnostics in the chosen format, and exits non-zero when any diagnostics
// contain errors.
func runCheck(cmd *cobra.Command, args []string) error {
	path := args[0]

	settings, err := resolveCheckSettings(cmd)
	if err != nil {
		return err
	}

	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}

	session, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer session.Stop()

	opts := driver.Options{
		MaxDiagnostics:   settings.maxDiagnostics,
		Jobs:             settings.jobs,
		NoWarnings:       settings.noWarnings,
		WarningsAsErrors: settings.warningsAsErrors,
		EnableTimings:    settings.showTimings,
	}
	if settings.diskCache {
		cache, cacheErr := driver.OpenResultCache("borrowck")
		if cacheErr != nil {
			fmt.Fprintf(os.Stderr, "warning: disk cache disabled: %v\n", cacheErr)
		} else {
			opts.Disk = cache
		}
	}

	// Список файлов собираем заранее: он нужен и прогресс-интерфейсу,
	// и детерминированному порядку вывода.
	var files []string
	if st.IsDir() {
		files, err = driver.ListMIRFiles(path)
		if err != nil {
			return fmt.Errorf("failed to list modules: %w", err)
		}
	} else {
		files = []string{path}
	}

	useTUI := len(files) > 0 && shouldUseTUI(settings.ui) &&
		(settings.ui == uiModeOn || settings.format == "pretty")

	var res *driver.DirResult
	if useTUI {
		res, err = runCheckWithUI(cmd.Context(), "borrowck check", files, opts)
	} else {
		res, err = driver.CheckFiles(cmd.Context(), files, opts)
	}
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if err := renderResults(os.Stdout, res, st.IsDir(), settings); err != nil {
		return err
	}

	if settings.showTimings && !settings.quiet {
		printTimerSummary(os.Stderr, res.Timing)
		for i := range res.Results {
			if res.Results[i].Timing == nil {
				continue
			}
			fmt.Fprintf(os.Stderr, "-- %s\n", res.Results[i].Path)
			printTimingReport(os.Stderr, res.Results[i].Timing)
		}
	}

	if res.HasErrors() {
		// Suppress cobra usage output on diagnostic errors
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return fmt.Errorf("") // Silent error - diagnostics already printed
	}
	return nil
}

// fileSetFor returns the file table the result's spans resolve against.
// Results without a decoded unit (load failures) get an empty set; the
// renderers fall back to a placeholder location for their spans.
func fileSetFor(r *driver.FileResult) *source.FileSet {
	if r.Unit != nil {
		return r.Unit.Files
	}
	return source.NewFileSet()
}

func renderResults(out io.Writer, res *driver.DirResult, isDir bool, settings checkSettings) error {
	pathMode := diagfmt.PathModeAuto
	if settings.fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	switch settings.format {
	case "pretty":
		prettyOpts := diagfmt.PrettyOpts{
			Color:     settings.useColor,
			Context:   2,
			PathMode:  pathMode,
			ShowNotes: settings.withNotes,
			ShowFixes: settings.suggest,
		}
		first := true
		for i := range res.Results {
			r := &res.Results[i]
			if isDir && r.Bag.Len() == 0 {
				continue
			}
			if !first {
				fmt.Fprintln(out)
			}
			first = false
			if isDir && !settings.quiet {
				fmt.Fprintf(out, "== %s ==\n", displayResultPath(r.Path, settings.fullPath))
			}
			diagfmt.Pretty(out, r.Bag, fileSetFor(r), prettyOpts)
		}
	case "short":
		for i := range res.Results {
			r := &res.Results[i]
			output := diag.FormatShortDiagnostics(r.Bag.Items(), fileSetFor(r), settings.withNotes)
			if output != "" {
				fmt.Fprintln(out, output)
			}
		}
	case "json":
		jsonOpts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			IncludeNotes:     settings.withNotes,
			IncludeFixes:     settings.suggest,
		}
		output := make(map[string]diagfmt.DiagnosticsOutput, len(res.Results))
		for i := range res.Results {
			r := &res.Results[i]
			output[displayResultPath(r.Path, settings.fullPath)] = diagfmt.BuildDiagnosticsOutput(r.Bag, fileSetFor(r), jsonOpts)
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(output); err != nil {
			return fmt.Errorf("failed to encode diagnostics output: %w", err)
		}
	case "sarif":
		meta := diagfmt.SarifRunMeta{
			ToolName:    "borrowck",
			ToolVersion: "0.1.0",
		}
		for i := range res.Results {
			r := &res.Results[i]
			if err := diagfmt.Sarif(out, r.Bag, fileSetFor(r), meta); err != nil {
				return fmt.Errorf("failed to format diagnostics: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown format: %s", settings.format)
	}
	return nil
}

func displayResultPath(path string, fullPath bool) string {
	if !fullPath {
		return path
	}
	abs, err := source.AbsolutePath(path)
	if err != nil {
		return path
	}
	return abs
}
