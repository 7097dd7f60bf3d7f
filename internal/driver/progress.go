package driver

import "time"

// ProgressStage identifies where a file is in the check pipeline.
type ProgressStage string

const (
	// StageQueued means the file is scheduled but no worker picked it up yet.
	StageQueued ProgressStage = "queued"
	// StageDecode covers reading and decoding the module file.
	StageDecode ProgressStage = "decode"
	// StageAnalyze covers validation and the per-body conflict analysis.
	StageAnalyze ProgressStage = "analyze"
	// StageDone means the file finished, conflicts or not.
	StageDone ProgressStage = "done"
	// StageError means the file failed to load, decode, or validate.
	StageError ProgressStage = "error"
)

// ProgressEvent reports progress for one file in a run.
type ProgressEvent struct {
	Path    string
	Index   int // position in the sorted file list
	Total   int
	Stage   ProgressStage
	Elapsed time.Duration // time since the file entered the pipeline, zero while queued
	Err     error         // set for StageError only
}

// ProgressSink consumes progress events. OnEvent may be called from
// multiple worker goroutines at once.
type ProgressSink interface {
	OnEvent(ProgressEvent)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- ProgressEvent
}

func (s ChannelSink) OnEvent(ev ProgressEvent) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

func publish(sink ProgressSink, ev ProgressEvent) {
	if sink == nil {
		return
	}
	sink.OnEvent(ev)
}
