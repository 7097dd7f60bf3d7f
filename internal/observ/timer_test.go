package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerBeginEnd(t *testing.T) {
	tm := NewTimer()
	end := tm.Begin("decode")
	end("3 funcs")

	report := tm.Report()
	if len(report.Phases) != 1 {
		t.Fatalf("phases = %d, want 1", len(report.Phases))
	}
	if report.Phases[0].Name != "decode" || report.Phases[0].Note != "3 funcs" {
		t.Errorf("phase = %+v", report.Phases[0])
	}
	if report.Phases[0].DurationMS < 0 {
		t.Errorf("negative duration: %v", report.Phases[0].DurationMS)
	}
}

func TestTimerMergeSumsByName(t *testing.T) {
	root := NewTimer()
	root.phases = append(root.phases, Phase{Name: "analyze", Dur: 2 * time.Millisecond})

	worker := NewTimer()
	worker.phases = append(worker.phases,
		Phase{Name: "analyze", Dur: 3 * time.Millisecond},
		Phase{Name: "decode", Dur: time.Millisecond},
	)

	root.Merge(worker)

	report := root.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(report.Phases))
	}
	if report.Phases[0].Name != "analyze" || report.Phases[0].DurationMS != 5 {
		t.Errorf("merged phase = %+v, want analyze 5ms", report.Phases[0])
	}
	if report.Phases[1].Name != "decode" {
		t.Errorf("appended phase = %+v", report.Phases[1])
	}
	if report.TotalMS != 6 {
		t.Errorf("total = %v, want 6", report.TotalMS)
	}
}

func TestTimerSummaryIncludesTotal(t *testing.T) {
	tm := NewTimer()
	tm.phases = append(tm.phases, Phase{Name: "check", Dur: time.Millisecond, Note: "1 body"})

	s := tm.Summary()
	if !strings.Contains(s, "check") || !strings.Contains(s, "total") {
		t.Fatalf("summary missing entries:\n%s", s)
	}
	if !strings.Contains(s, "// 1 body") {
		t.Fatalf("summary missing note:\n%s", s)
	}
}

func TestTimerMergeNil(t *testing.T) {
	tm := NewTimer()
	tm.Merge(nil)
	if len(tm.phases) != 0 {
		t.Fatalf("phases = %d after nil merge", len(tm.phases))
	}
}
