package arlog

import (
	"bytes"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iwtcode/buildver/cstring"
)

// Record - запись, принятая журналом MemoryRuntime.
type Record struct {
	ID             RecordID
	Logbook        string
	EventID        EventID
	OriginRecordID RecordID
	ObjectID       string
	Format         AddFormat
	Data           []byte
	Written        time.Time
}

// Text возвращает текст записи для AddFormatText.
func (r Record) Text() string {
	return cstring.String(r.Data)
}

// CallStats - счетчики вызовов функциональных блоков.
type CallStats struct {
	GetIdentCalls int
	WriteCalls    int
	Releases      int
}

type logbook struct {
	name     string
	ident    Ident
	capacity int
	records  []Record
}

// MemoryRuntime - подсистема журналов в памяти процесса. Запросы завершаются
// через Latency вызовов после переднего фронта Execute.
type MemoryRuntime struct {
	mu        sync.Mutex
	latency   int
	logger    logrus.FieldLogger
	now       func() time.Time
	books     map[string]*logbook
	byIdent   map[Ident]*logbook
	nextIdent Ident
	pending   map[any]int
	stats     CallStats
}

// MemoryOption настраивает MemoryRuntime.
type MemoryOption func(*MemoryRuntime)

// WithLatency задает число дополнительных вызовов до завершения запроса.
func WithLatency(calls int) MemoryOption {
	return func(r *MemoryRuntime) {
		if calls < 0 {
			calls = 0
		}
		r.latency = calls
	}
}

// WithMirror дублирует принятые записи в логгер процесса.
func WithMirror(logger logrus.FieldLogger) MemoryOption {
	return func(r *MemoryRuntime) { r.logger = logger }
}

// WithClock подменяет источник времени для меток записей.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *MemoryRuntime) { r.now = now }
}

// WithLogbook создает дополнительный журнал. capacity <= 0 - без ограничения.
func WithLogbook(name string, capacity int) MemoryOption {
	return func(r *MemoryRuntime) { r.addLogbook(name, capacity) }
}

// NewMemoryRuntime создает подсистему с пользовательским журналом $arlogusr.
func NewMemoryRuntime(opts ...MemoryOption) *MemoryRuntime {
	r := &MemoryRuntime{
		now:     time.Now,
		books:   make(map[string]*logbook),
		byIdent: make(map[Ident]*logbook),
		pending: make(map[any]int),
	}
	r.addLogbook(UserLogbook, 0)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *MemoryRuntime) addLogbook(name string, capacity int) {
	if b, ok := r.books[name]; ok {
		b.capacity = capacity
		return
	}
	r.nextIdent++
	b := &logbook{name: name, ident: r.nextIdent, capacity: capacity}
	r.books[name] = b
	r.byIdent[b.ident] = b
}

// GetIdent реализует Runtime.
func (r *MemoryRuntime) GetIdent(fb *GetIdent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.GetIdentCalls++
	if !fb.Execute {
		r.release(fb)
		*fb = GetIdent{Name: fb.Name}
		return
	}
	if fb.Done || fb.Error {
		return
	}
	if !r.step(fb) {
		fb.Busy, fb.StatusID = true, StatusBusy
		return
	}

	fb.Busy = false
	b, ok := r.books[fb.NameString()]
	if !ok {
		fb.Error, fb.StatusID, fb.Ident = true, StatusLogbookNotFound, 0
		return
	}
	fb.Done, fb.StatusID, fb.Ident = true, StatusOK, b.ident
}

// Write реализует Runtime.
func (r *MemoryRuntime) Write(fb *Write) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stats.WriteCalls++
	if !fb.Execute {
		r.release(fb)
		fb.Done, fb.Busy, fb.Error = false, false, false
		fb.StatusID, fb.RecordID = StatusOK, 0
		return
	}
	if fb.Done || fb.Error {
		return
	}
	if !r.step(fb) {
		fb.Busy, fb.StatusID = true, StatusBusy
		return
	}

	fb.Busy = false
	id, status := r.appendRecord(fb)
	if status != StatusOK {
		fb.Error, fb.StatusID = true, status
		return
	}
	fb.Done, fb.StatusID, fb.RecordID = true, StatusOK, id
}

// step продвигает запрос fb на один вызов и сообщает, завершился ли он сейчас.
func (r *MemoryRuntime) step(fb any) bool {
	left, inFlight := r.pending[fb]
	if !inFlight {
		left = r.latency
	} else {
		left--
	}
	if left > 0 {
		r.pending[fb] = left
		return false
	}
	delete(r.pending, fb)
	return true
}

func (r *MemoryRuntime) release(fb any) {
	delete(r.pending, fb)
	r.stats.Releases++
}

func (r *MemoryRuntime) appendRecord(fb *Write) (RecordID, Status) {
	b, ok := r.byIdent[fb.Ident]
	if !ok {
		return 0, StatusInvalidIdent
	}
	if int(fb.AddDataSize) > len(fb.AddData) {
		return 0, StatusInvalidParameter
	}
	data := fb.AddData[:fb.AddDataSize]
	if fb.AddDataFormat == AddFormatText && len(data) > 0 && bytes.IndexByte(data, 0) < 0 {
		return 0, StatusInvalidParameter
	}
	if b.capacity > 0 && len(b.records) >= b.capacity {
		return 0, StatusLogbookFull
	}

	written := fb.TimeStamp
	if written.IsZero() {
		written = r.now()
	}
	rec := Record{
		ID:             RecordID(len(b.records) + 1),
		Logbook:        b.name,
		EventID:        fb.EventID,
		OriginRecordID: fb.OriginRecordID,
		ObjectID:       fb.ObjectIDString(),
		Format:         fb.AddDataFormat,
		Data:           append([]byte(nil), data...),
		Written:        written,
	}
	b.records = append(b.records, rec)

	if r.logger != nil {
		fields := logrus.Fields{
			"logbook":   b.name,
			"record_id": rec.ID,
			"event_id":  rec.EventID.String(),
			"object_id": rec.ObjectID,
		}
		if rec.Format == AddFormatText {
			fields["text"] = rec.Text()
		}
		r.logger.WithFields(fields).Debug("Запись добавлена в журнал")
	}
	return rec.ID, StatusOK
}

// Entries возвращает копию записей журнала name.
func (r *MemoryRuntime) Entries(name string) []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[name]
	if !ok {
		return nil
	}
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// Stats возвращает счетчики вызовов.
func (r *MemoryRuntime) Stats() CallStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

var _ Runtime = (*MemoryRuntime)(nil)
