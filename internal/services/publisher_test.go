package services

import (
	"context"

	"github.com/vennapp/venner/internal/realtime"
)

type publishedEvent struct {
	table string
	op    realtime.Op
	row   any
}

// recordingPublisher captures change events so tests can assert writes
// publish exactly what they committed.
type recordingPublisher struct {
	events []publishedEvent
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, table string, op realtime.Op, row any) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, publishedEvent{table: table, op: op, row: row})
	return nil
}
