package arlog

import "fmt"

// Severity - уровень важности записи журнала (два старших бита EventID).
type Severity uint8

const (
	SeveritySuccess Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// EventID классифицирует запись журнала. Раскладка битов:
//
//	 3 3 2 2 2 2 2 2 2 2 2 2 1 1 1 1 1 1 1 1 1 1
//	 1 0 9 8 7 6 5 4 3 2 1 0 9 8 7 6 5 4 3 2 1 0 9 8 7 6 5 4 3 2 1 0
//	+---+-+-+-----------------------+-------------------------------+
//	|Sev|C|R|       Facility        |              Code             |
//	+---+-+-+-----------------------+-------------------------------+
//
// C (customer) всегда выставлен для пользовательских событий, R зарезервирован.
type EventID uint32

const (
	severityShift = 30
	customerBit   = 1 << 29
	facilityShift = 16
	facilityMask  = 0x0FFF
	codeMask      = 0xFFFF
)

// MakeEventID собирает EventID из уровня важности, facility и кода.
// Значения, не помещающиеся в свои поля, обрезаются маской.
func MakeEventID(sev Severity, facility uint16, code uint16) EventID {
	id := uint32(sev&0x3) << severityShift
	id |= customerBit
	id |= (uint32(facility) & facilityMask) << facilityShift
	id |= uint32(code) & codeMask
	return EventID(id)
}

func (id EventID) Severity() Severity {
	return Severity(uint32(id) >> severityShift)
}

func (id EventID) Facility() uint16 {
	return uint16((uint32(id) >> facilityShift) & facilityMask)
}

func (id EventID) Code() uint16 {
	return uint16(uint32(id) & codeMask)
}

// Customer сообщает, выставлен ли бит пользовательского события.
func (id EventID) Customer() bool {
	return uint32(id)&customerBit != 0
}

func (id EventID) String() string {
	return fmt.Sprintf("0x%08X(%s/%d/%d)", uint32(id), id.Severity(), id.Facility(), id.Code())
}
