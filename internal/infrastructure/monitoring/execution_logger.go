package monitoring

import (
	"github.com/rs/zerolog"
)

// LoggingCallback logs every agent/execution lifecycle event through
// zerolog. It satisfies runtime.CompletionCallback structurally, so
// the runtime package (which this package must not import) can take it
// as its callback directly.
type LoggingCallback struct {
	logger zerolog.Logger
}

// NewLoggingCallback creates a LoggingCallback over logger.
func NewLoggingCallback(logger zerolog.Logger) *LoggingCallback {
	return &LoggingCallback{logger: logger}
}

func (l *LoggingCallback) OnAgentSpawned(agentID string) {
	l.logger.Debug().Str("agent_id", agentID).Msg("agent spawned")
}

func (l *LoggingCallback) OnCommandQueued(commandID string) {
	l.logger.Debug().Str("command_id", commandID).Msg("command queued")
}

func (l *LoggingCallback) OnCommandAssigned(agentID, commandID string) {
	l.logger.Debug().Str("agent_id", agentID).Str("command_id", commandID).Msg("command assigned")
}

func (l *LoggingCallback) OnExecutionStarted(executionID, agentID, commandID string) {
	l.logger.Info().
		Str("execution_id", executionID).
		Str("agent_id", agentID).
		Str("command_id", commandID).
		Msg("execution started")
}

func (l *LoggingCallback) OnExecutionFailed(agentID, commandID string, err error) {
	l.logger.Warn().
		Str("agent_id", agentID).
		Str("command_id", commandID).
		Err(err).
		Msg("execution failed to start")
}

func (l *LoggingCallback) OnCompletion(executionID string, exitCode int, success bool, agentID, commandID string) {
	l.logger.Info().
		Str("execution_id", executionID).
		Str("agent_id", agentID).
		Str("command_id", commandID).
		Int("exit_code", exitCode).
		Bool("success", success).
		Msg("execution completed")
}
