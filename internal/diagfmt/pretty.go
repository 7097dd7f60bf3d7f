package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"borrowck/internal/diag"
	"borrowck/internal/source"
)

var (
	prettyErrorColor  = color.New(color.FgRed, color.Bold)
	prettyWarnColor   = color.New(color.FgYellow, color.Bold)
	prettyInfoColor   = color.New(color.FgCyan, color.Bold)
	prettyGutterColor = color.New(color.FgBlue)
)

func severityColor(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return prettyErrorColor
	case diag.SevWarning:
		return prettyWarnColor
	default:
		return prettyInfoColor
	}
}

func paint(enabled bool, c *color.Color, s string) string {
	if !enabled {
		return s
	}
	return c.Sprint(s)
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes с аналогичным
// форматом и Fixes с предпросмотром правок.
// Цвет включается опцией.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	items := bag.Items()
	for i := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &items[i], fs, opts)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts) {
	sev := paint(opts.Color, severityColor(d.Severity), d.Severity.String())
	fmt.Fprintf(w, "%s: %s %s: %s\n", place(fs, d.Primary, opts.PathMode), sev, d.Code.ID(), d.Message)
	writeExcerpt(w, fs, d.Primary, d.Severity, opts)

	if opts.ShowNotes {
		for i := range d.Notes {
			n := &d.Notes[i]
			if n.Span == (source.Span{}) {
				// заметка без позиции (например, пояснение о типе)
				fmt.Fprintf(w, "  note: %s\n", n.Msg)
				continue
			}
			fmt.Fprintf(w, "  note: %s: %s\n", place(fs, n.Span, opts.PathMode), n.Msg)
		}
	}

	if opts.ShowFixes {
		for i := range d.Fixes {
			f := &d.Fixes[i]
			fmt.Fprintf(w, "  fix #%d: %s\n", i+1, f.Title)
			for _, edit := range f.Edits {
				fmt.Fprintf(w, "    apply=%q at %s\n", edit.NewText, place(fs, edit.Span, opts.PathMode))
				if !opts.ShowPreview {
					continue
				}
				pv, err := buildFixEditPreview(fs, edit)
				if err != nil {
					continue
				}
				fmt.Fprintln(w, "    preview:")
				for _, line := range pv.before {
					fmt.Fprintf(w, "      - %s\n", line)
				}
				for _, line := range pv.after {
					fmt.Fprintf(w, "      + %s\n", line)
				}
			}
		}
	}
}

// place даёт "<path>:<line>:<col>" по началу спана.
func place(fs *source.FileSet, sp source.Span, mode PathMode) string {
	if fs == nil || int(sp.File) >= fs.Len() {
		return fmt.Sprintf("?:%d", sp.Start)
	}
	f := fs.Get(sp.File)
	start, _ := fs.Resolve(sp)
	return fmt.Sprintf("%s:%d:%d", displayPath(f, fs, mode), start.Line, start.Col)
}

func writeExcerpt(w io.Writer, fs *source.FileSet, sp source.Span, sev diag.Severity, opts PrettyOpts) {
	if fs == nil || int(sp.File) >= fs.Len() {
		return
	}
	f := fs.Get(sp.File)
	if len(f.Content) == 0 || f.Flags&source.FileNoContent != 0 {
		return
	}

	start, end := fs.Resolve(sp)
	last := lineCount(f)
	from, to := start.Line, end.Line
	if opts.Context > 0 {
		ctx := uint32(opts.Context)
		if from > ctx {
			from -= ctx
		} else {
			from = 1
		}
		to += ctx
	}
	to = min(to, last)

	gutter := len(fmt.Sprintf("%d", to))
	avail := 0
	if opts.Width > 0 {
		avail = int(opts.Width) - gutter - 5
	}
	for line := from; line <= to; line++ {
		raw := f.GetLine(line)
		shown := expandTabs(raw)
		if avail > 0 {
			shown = runewidth.Truncate(shown, avail, "...")
		}
		num := fmt.Sprintf("%*d", gutter, line)
		fmt.Fprintf(w, "  %s | %s\n", paint(opts.Color, prettyGutterColor, num), shown)
		if line != start.Line {
			continue
		}

		col := int(start.Col) - 1
		if col < 0 {
			col = 0
		}
		col = min(col, len(raw))
		pad := runewidth.StringWidth(expandTabs(raw[:col]))
		if avail > 0 && pad >= avail {
			continue
		}
		marker := "^" + strings.Repeat("~", underlineWidth(raw, col, sp, start, end)-1)
		fmt.Fprintf(w, "  %s | %s%s\n",
			strings.Repeat(" ", gutter),
			strings.Repeat(" ", pad),
			paint(opts.Color, severityColor(sev), marker))
	}
}

// underlineWidth считает видимую ширину подчёркивания: до конца спана на
// этой строке либо до конца строки для многострочных спанов.
func underlineWidth(raw string, col int, sp source.Span, start, end source.LineCol) int {
	to := len(raw)
	if start.Line == end.Line {
		to = min(col+int(sp.End-sp.Start), len(raw))
	}
	w := runewidth.StringWidth(expandTabs(raw[col:to]))
	if w < 1 {
		return 1
	}
	return w
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func lineCount(f *source.File) uint32 {
	n, err := safecast.Conv[uint32](len(f.LineIdx) + 1)
	if err != nil {
		panic(fmt.Errorf("line count overflow: %w", err))
	}
	return n
}
