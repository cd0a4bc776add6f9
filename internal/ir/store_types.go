package ir

// RunStatus is the lifecycle state of a persisted run.
type RunStatus string

const (
	RunRunning       RunStatus = "running"
	RunHalted        RunStatus = "halted"
	RunQuotaExceeded RunStatus = "quota_exceeded"
	RunCancelled     RunStatus = "cancelled"
	RunFailed        RunStatus = "failed"
)

// Valid reports whether s is one of the known statuses.
func (s RunStatus) Valid() bool {
	switch s {
	case RunRunning, RunHalted, RunQuotaExceeded, RunCancelled, RunFailed:
		return true
	}
	return false
}

// Terminal reports whether no further steps will be written for the run.
func (s RunStatus) Terminal() bool {
	return s != RunRunning
}

// RunRecord is the store-layer header of one run. Its steps are stored
// as TraceRecords keyed by (ID, Seq).
type RunRecord struct {
	ID             string    `json:"id"`
	DefinitionHash string    `json:"definition_hash"`
	Definition     string    `json:"definition"` // Canonical JSON of the Definition
	Initial        string    `json:"initial"`
	Final          string    `json:"final"`
	Status         RunStatus `json:"status"`
	Steps          int64     `json:"steps"`
	EngineVersion  string    `json:"engine_version"`
}
