package services

import (
	"context"

	"github.com/vennapp/venner/internal/logging"
	"github.com/vennapp/venner/internal/realtime"
)

// ChangePublisher emits row-change events after successful writes. The bus
// satisfies this; tests pass nil or a recorder.
type ChangePublisher interface {
	Publish(ctx context.Context, table string, op realtime.Op, row any) error
}

// publishChange emits a change event, logging failures instead of returning
// them: realtime delivery is best effort and must not fail the write that
// already committed.
func publishChange(ctx context.Context, pub ChangePublisher, table string, op realtime.Op, row any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, table, op, row); err != nil {
		logging.Warn("Failed to publish change event", map[string]interface{}{
			"table": table,
			"op":    string(op),
			"error": err.Error(),
		})
	}
}
