package domain

import "strings"

// CommandStatus represents the lifecycle state of a PendingCommand during a run.
type CommandStatus string

const (
	// CommandQueued indicates the command is waiting for its inputs.
	CommandQueued CommandStatus = "queued"
	// CommandReady indicates every input is produced and the command waits for a free slot.
	CommandReady CommandStatus = "ready"
	// CommandRunning indicates the external process is executing.
	CommandRunning CommandStatus = "running"
	// CommandCompleted indicates the command succeeded and its outputs are produced.
	CommandCompleted CommandStatus = "completed"
	// CommandFailed indicates the command exited abnormally.
	CommandFailed CommandStatus = "failed"
	// CommandCached indicates execution was skipped because the recorded build info matched.
	CommandCached CommandStatus = "cached"
	// CommandBlocked indicates the command never ran because an input was never produced.
	CommandBlocked CommandStatus = "blocked"
)

// IsTerminal checks if a status is a terminal state (Completed, Failed, Cached, Blocked).
func (s CommandStatus) IsTerminal() bool {
	switch s {
	case CommandCompleted, CommandFailed, CommandCached, CommandBlocked:
		return true
	default:
		return false
	}
}

// Produced reports whether a command in this state has made its outputs available.
func (s CommandStatus) Produced() bool {
	return s == CommandCompleted || s == CommandCached
}

// NormalizeCommandStatus converts a string to a CommandStatus, defaulting to queued if unknown.
func NormalizeCommandStatus(s string) CommandStatus {
	switch st := CommandStatus(strings.ToLower(s)); st {
	case CommandQueued, CommandReady, CommandRunning, CommandCompleted,
		CommandFailed, CommandCached, CommandBlocked:
		return st
	default:
		return CommandQueued
	}
}

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
