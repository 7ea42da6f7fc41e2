package services

import (
	"hashvault/escrow/internal/models"

	"github.com/rs/zerolog"
)

// EventSink receives exactly one event per successful mutating operation,
// after the state change committed.
type EventSink interface {
	Emit(e models.Event)
}

// LogSink writes events to the structured log.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(e models.Event) {
	s.log.Info().
		Str("event", string(e.Type)).
		Uint64("id", e.ID).
		Msg("escrow event")
}
