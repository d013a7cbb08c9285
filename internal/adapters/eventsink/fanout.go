package eventsink

import (
	"context"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"
)

// Fanout forwards every event to each sink in order
type Fanout []port.EventSink

// NewFanout drops nil sinks so optional outputs can be passed unconditionally
func NewFanout(sinks ...port.EventSink) Fanout {
	out := make(Fanout, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (f Fanout) Publish(ctx context.Context, ev domain.Event) {
	for _, s := range f {
		s.Publish(ctx, ev)
	}
}
