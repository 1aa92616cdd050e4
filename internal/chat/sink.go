// Package chat delivers player-facing messages.
package chat

import (
	"vanish/internal/logger"
	"vanish/internal/player"
)

// Sink receives chat lines for a player.
type Sink interface {
	Send(id player.ID, name, text string)
}

// LogSink writes chat lines to the structured log, for headless hosts.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: logger.Component(log, "chat")}
}

func (s *LogSink) Send(id player.ID, name, text string) {
	s.log.Info("chat", logger.F("player", id), logger.F("name", name), logger.F("text", text))
}
