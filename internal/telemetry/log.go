// Package telemetry provides history observers for logging and metrics.
package telemetry

import (
	"go.uber.org/zap"

	"github.com/dshills/revstack/internal/history"
)

// LogObserver writes history events to a zap logger.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates a log observer. Completions and rolls are logged
// at debug level; discards and clears at info level.
func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger.Named("history")}
}

// TransactionCompleted logs a completion at debug.
func (o *LogObserver) TransactionCompleted(t *history.Transaction) {
	o.logger.Debug("transaction completed", transactionFields(t)...)
}

// TransactionRollbacked logs a rollback at debug.
func (o *LogObserver) TransactionRollbacked(t *history.Transaction) {
	o.logger.Debug("transaction rolled back", transactionFields(t)...)
}

// TransactionRollforwarded logs a rollforward at debug.
func (o *LogObserver) TransactionRollforwarded(t *history.Transaction) {
	o.logger.Debug("transaction rolled forward", transactionFields(t)...)
}

// TransactionDiscarded logs discarded transactions at info.
func (o *LogObserver) TransactionDiscarded(ts []*history.Transaction, reason history.DiscardReason) {
	ids := make([]string, len(ts))
	for i, t := range ts {
		ids[i] = t.String()
	}
	o.logger.Info("transactions discarded",
		zap.Stringer("reason", reason),
		zap.Strings("transactions", ids))
}

// Cleared logs a cleared history at info.
func (o *LogObserver) Cleared() {
	o.logger.Info("history cleared")
}

func transactionFields(t *history.Transaction) []zap.Field {
	return []zap.Field{
		zap.String("id", t.ID().String()),
		zap.String("name", t.Name()),
		zap.Int("operations", t.Len()),
	}
}
