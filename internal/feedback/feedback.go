// Package feedback carries user-facing status messages from the intake
// pipelines and session manager to whatever surface displays them.
package feedback

import "log/slog"

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Message is a single transient notice shown to the user.
type Message struct {
	Level Level
	Text  string
	// DurationMs is how long the notice stays visible; 0 means the
	// surface's default.
	DurationMs int
}

// Sink receives messages. Publish must not block the caller.
type Sink interface {
	Publish(Message)
}

func Success(text string) Message {
	return Message{Level: LevelSuccess, Text: text}
}

func Error(text string) Message {
	return Message{Level: LevelError, Text: text}
}

func Info(text string) Message {
	return Message{Level: LevelInfo, Text: text}
}

// LogSink writes messages to the log. Used when no interactive surface is
// connected.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Publish(msg Message) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("user feedback", "level", string(msg.Level), "text", msg.Text)
}
