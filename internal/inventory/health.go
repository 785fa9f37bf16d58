package inventory

// HealthStatus is the composite health snapshot. ServiceStatus is "up"
// whenever the process can respond at all — a database outage degrades
// the data operations only, and must not make a process-liveness check
// report the service as dead.
type HealthStatus struct {
	ServiceStatus     string `json:"serviceStatus"`
	DatabaseStatus    string `json:"databaseStatus"`
	DatabaseAvailable bool   `json:"databaseAvailable"`
	Message           string `json:"message"`
}

// HealthReporter reads supervisor state and exposes the composite
// status. It never fails.
type HealthReporter struct {
	sup *Supervisor
}

// NewHealthReporter creates a HealthReporter over a supervisor.
func NewHealthReporter(sup *Supervisor) *HealthReporter {
	return &HealthReporter{sup: sup}
}

// Check returns the current composite status.
func (r *HealthReporter) Check() HealthStatus {
	state := r.sup.State()
	return HealthStatus{
		ServiceStatus:     "up",
		DatabaseStatus:    state.String(),
		DatabaseAvailable: state == StateConnected,
		Message:           healthMessage(state),
	}
}

func healthMessage(state State) string {
	switch state {
	case StateConnected:
		return "database connection is healthy"
	case StateDisconnected:
		return "waiting for the first database connection"
	case StateConnecting:
		return "database connection attempt in progress"
	case StateReconnecting:
		return "database connection lost; reconnecting with backoff"
	case StateSchemaIncompatible:
		return "database schema version is incompatible with this build; restart against a compatible build"
	case StateMigrationFailed:
		return "database schema migration failed; operator intervention required"
	default:
		return "database state unknown"
	}
}
