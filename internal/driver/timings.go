package driver

import (
	"encoding/json"
	"fmt"

	"borrowck/internal/diag"
	"borrowck/internal/observ"
	"borrowck/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	if payload.Kind == "" {
		payload.Kind = "pipeline"
	}
	msg := fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS)
	if payload.Path != "" {
		msg = fmt.Sprintf("%s [%s]", msg, payload.Path)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}

	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  msg,
		Primary:  source.Span{},
		Notes: []diag.Note{
			{Span: source.Span{}, Msg: string(data)},
		},
	}

	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(bag.Len() + 1)
	overflow.Add(entry)
	bag.Merge(overflow)
}

// AppendRunTiming attaches the merged run report as an info diagnostic so
// every renderer, JSON included, carries the same timing data.
func AppendRunTiming(bag *diag.Bag, t *observ.Timer) {
	if t == nil {
		return
	}
	rep := t.Report()
	appendTimingDiagnostic(bag, timingPayload{
		Kind:    "run",
		TotalMS: rep.TotalMS,
		Phases:  rep.Phases,
	})
}
