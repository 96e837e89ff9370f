package domain

import (
	"bytes"
	"sync"
)

// TaskState is the lifecycle state of a running command instance.
type TaskState int

const (
	// TaskRunning means the external process has been launched.
	TaskRunning TaskState = iota
	// TaskDone means the process has exited and its output is complete.
	TaskDone
)

// Task is the runtime handle for one externally executing command.
// Output may be written concurrently from the stdout and stderr pipes.
type Task struct {
	Command  CommandID
	State    TaskState
	ExitCode int

	mu     sync.Mutex
	output bytes.Buffer
}

// NewTask creates a running task for the given command.
func NewTask(id CommandID) *Task {
	return &Task{Command: id, State: TaskRunning}
}

// Write appends p to the captured output.
func (t *Task) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.output.Write(p)
}

// Output returns a copy of the captured output.
func (t *Task) Output() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return bytes.Clone(t.output.Bytes())
}

// Finish marks the task done with the given exit code.
func (t *Task) Finish(exitCode int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ExitCode = exitCode
	t.State = TaskDone
}
