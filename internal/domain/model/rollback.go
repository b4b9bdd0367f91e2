package model

// RollbackOutcome is the result of a rollback request.
type RollbackOutcome int

const (
	RollbackOK RollbackOutcome = iota
	RollbackError
	// RollbackAutoSyncEnabled means the controller refused the rollback
	// because auto-sync is on, and it was not (or could not be) turned off.
	RollbackAutoSyncEnabled
)

func (o RollbackOutcome) String() string {
	switch o {
	case RollbackOK:
		return "ok"
	case RollbackAutoSyncEnabled:
		return "autosync_enabled"
	default:
		return "error"
	}
}
