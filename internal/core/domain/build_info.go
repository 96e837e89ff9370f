package domain

import "time"

// BuildInfo records the hashes of a command's last successful run.
type BuildInfo struct {
	Key        string    `json:"key,omitzero"`
	InputHash  string    `json:"input_hash,omitzero"`
	OutputHash string    `json:"output_hash,omitzero"`
	Timestamp  time.Time `json:"timestamp,omitzero"`
}
