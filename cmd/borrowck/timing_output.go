package main

import (
	"fmt"
	"io"

	"borrowck/internal/observ"
)

// printTimingReport renders a phase report the same way for a single
// file and for a merged directory run.
func printTimingReport(out io.Writer, report *observ.Report) {
	if out == nil || report == nil || len(report.Phases) == 0 {
		return
	}
	var printErr error
	for _, p := range report.Phases {
		if p.Note != "" {
			_, printErr = fmt.Fprintf(out, "%s %.1f ms (%s)\n", p.Name, p.DurationMS, p.Note)
		} else {
			_, printErr = fmt.Fprintf(out, "%s %.1f ms\n", p.Name, p.DurationMS)
		}
		if printErr != nil {
			panic(printErr)
		}
	}
	if _, printErr = fmt.Fprintf(out, "total %.1f ms\n", report.TotalMS); printErr != nil {
		panic(printErr)
	}
}

func printTimerSummary(out io.Writer, t *observ.Timer) {
	if out == nil || t == nil {
		return
	}
	report := t.Report()
	printTimingReport(out, &report)
}
