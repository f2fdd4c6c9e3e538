package session

import (
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dash-client/internal/models"
)

// ZapNotifier renders notifications through a zap logger. Headless stand-in
// for the dashboard's toast sink.
type ZapNotifier struct {
	logger *zap.Logger
}

// NewZapNotifier builds a notifier over the given logger.
func NewZapNotifier(logger *zap.Logger) *ZapNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapNotifier{logger: logger}
}

// Notify logs the notification at a level matching its variant.
func (n *ZapNotifier) Notify(note models.Notification) {
	fields := []zap.Field{
		zap.String("title", note.Title),
		zap.String("description", note.Description),
	}
	if note.Variant == models.VariantDestructive {
		n.logger.Warn("notification", fields...)
		return
	}
	n.logger.Info("notification", fields...)
}
