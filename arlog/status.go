package arlog

import "fmt"

// Status - код завершения функционального блока (StatusID).
// Ненулевой статус реализует error.
type Status int32

const (
	StatusOK Status = 0
	// StatusBusy - запрос еще выполняется.
	StatusBusy Status = 65535

	StatusLogbookNotFound  Status = -1070584316
	StatusInvalidIdent     Status = -1070584315
	StatusLogbookFull      Status = -1070584314
	StatusInvalidParameter Status = -1070584313
)

func (s Status) Error() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBusy:
		return "busy"
	case StatusLogbookNotFound:
		return "logbook not found"
	case StatusInvalidIdent:
		return "invalid logbook ident"
	case StatusLogbookFull:
		return "logbook full"
	case StatusInvalidParameter:
		return "invalid parameter"
	default:
		return fmt.Sprintf("status=%d", int32(s))
	}
}
