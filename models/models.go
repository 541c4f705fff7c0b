package models

import "time"

// LogEntry содержит запись, отправленную в журнал контроллера
type LogEntry struct {
	Logbook  string `json:"logbook"`
	Ident    uint32 `json:"ident"`
	EventID  string `json:"event_id"`
	Severity string `json:"severity"`
	ObjectID string `json:"object_id"`
	Message  string `json:"message"`
	Size     int    `json:"size"`
	RecordID uint32 `json:"record_id,omitempty"`
}

// InitReport содержит итог стартовой записи версии сборки
type InitReport struct {
	Stage      string    `json:"stage"`
	Entry      LogEntry  `json:"entry"`
	Truncated  bool      `json:"truncated"`
	IdentError string    `json:"ident_error,omitempty"`
	WriteError string    `json:"write_error,omitempty"`
	Exported   []string  `json:"exported"`
	StartedAt  time.Time `json:"started_at"`
	Duration   string    `json:"duration"`
}

// Written сообщает, что запись принята журналом.
func (r *InitReport) Written() bool {
	return r.WriteError == "" && r.Entry.RecordID != 0
}
