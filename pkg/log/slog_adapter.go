package log

import (
	"context"
	"log/slog"
)

// SlogAdapter writes trace events to an slog.Logger at Debug level.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter writing to logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event as one "trace" record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("category", event.Category.String()),
	}
	if event.SessionID != "" {
		attrs = append(attrs, slog.String("session", event.SessionID))
	}

	switch {
	case event.Gate != nil:
		attrs = append(attrs,
			slog.String("old_state", event.Gate.OldState),
			slog.String("new_state", event.Gate.NewState),
		)
		if event.Gate.ProxyURL != "" {
			attrs = append(attrs, slog.String("proxy_url", event.Gate.ProxyURL))
		}
		if event.Gate.Released > 0 {
			attrs = append(attrs, slog.Int("released", event.Gate.Released))
		}
	case event.List != nil:
		attrs = append(attrs,
			slog.Int("list", event.List.Index),
			slog.String("op", event.List.Op),
			slog.Any("fields", event.List.Fields),
		)
		if event.List.Round != 0 {
			attrs = append(attrs, slog.Uint64("round", event.List.Round))
		}
		if event.List.Created {
			attrs = append(attrs, slog.Bool("created", true))
		}
	case event.Subscription != nil:
		attrs = append(attrs,
			slog.String("room", event.Subscription.RoomID),
			slog.Bool("visible", event.Subscription.Visible),
			slog.Bool("changed", event.Subscription.Changed),
			slog.Int("size", event.Subscription.Size),
		)
		if event.Subscription.FastPath {
			attrs = append(attrs, slog.Bool("fast_path", true))
		}
	case event.Confirmation != nil:
		attrs = append(attrs,
			slog.String("correlation_id", event.Confirmation.CorrelationID),
			slog.String("key", event.Confirmation.Key),
			slog.String("action", event.Confirmation.Action.String()),
			slog.Uint64("round", event.Confirmation.Round),
		)
		if event.Confirmation.Waited != nil {
			attrs = append(attrs, slog.Duration("waited", *event.Confirmation.Waited))
		}
	case event.Round != nil:
		attrs = append(attrs,
			slog.Uint64("round", event.Round.Round),
			slog.String("state", event.Round.State),
		)
		if event.Round.Pos != "" {
			attrs = append(attrs, slog.String("pos", event.Round.Pos))
		}
		if event.Round.Fired > 0 {
			attrs = append(attrs, slog.Int("fired", event.Round.Fired))
		}
	case event.Error != nil:
		attrs = append(attrs, slog.String("error_msg", event.Error.Message))
		if event.Error.Context != "" {
			attrs = append(attrs, slog.String("error_context", event.Error.Context))
		}
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "trace", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
