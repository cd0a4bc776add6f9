package ir

// Version constants for the persisted data model and engine.
const (
	// SchemaVersion is the version of the canonical definition encoding.
	SchemaVersion = "1"

	// EngineVersion is the postsys engine version.
	EngineVersion = "0.1.0"
)
