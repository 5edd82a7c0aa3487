// Package audit records one entry per outbound provider call. Recording is
// fire-and-forget: a failing or slow sink never affects the fetch pipeline.
package audit

import (
	"context"
	"time"
)

// CallRecord describes one outbound provider call.
type CallRecord struct {
	Provider   string    `bson:"provider" json:"provider"`
	Endpoint   string    `bson:"endpoint" json:"endpoint"`
	StatusCode int       `bson:"status_code" json:"status_code"`
	LatencyMs  int64     `bson:"latency_ms" json:"latency_ms"`
	ItemCount  int       `bson:"item_count" json:"item_count"`
	Error      string    `bson:"error,omitempty" json:"error,omitempty"`
	At         time.Time `bson:"at" json:"at"`
}

// Failed reports whether the call ended in an error.
func (r CallRecord) Failed() bool {
	return r.Error != ""
}

// Sink persists records and may fail.
type Sink interface {
	Write(ctx context.Context, rec CallRecord) error
}

// Recorder is what adapters depend on: it never fails and should not block.
type Recorder interface {
	Record(ctx context.Context, rec CallRecord)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Record(context.Context, CallRecord) {}

func (Nop) Write(context.Context, CallRecord) error { return nil }
