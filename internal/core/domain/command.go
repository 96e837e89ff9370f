package domain

import "slices"

// CommandID identifies a PendingCommand within a Graph.
type CommandID int

// Descriptor is the toolchain's description of a build step. The core treats it
// as opaque and only hands it to an executor.
type Descriptor struct {
	// Label is a short human-readable summary, e.g. "compile lib/a/a.cpp".
	Label string
	Argv  []string
	// Dir is the absolute working directory.
	Dir string
	Env map[string]string
}

// PendingCommand is one schedulable build step with declared inputs and outputs.
type PendingCommand struct {
	ID         CommandID
	Component  ComponentID
	Descriptor Descriptor
	Inputs     []FileID
	Outputs    []FileID
}

// AddInput appends id to the declared inputs, ignoring duplicates.
func (c *PendingCommand) AddInput(id FileID) {
	if !slices.Contains(c.Inputs, id) {
		c.Inputs = append(c.Inputs, id)
	}
}

// AddOutput appends id to the declared outputs, ignoring duplicates.
func (c *PendingCommand) AddOutput(id FileID) {
	if !slices.Contains(c.Outputs, id) {
		c.Outputs = append(c.Outputs, id)
	}
}
