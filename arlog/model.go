// Package arlog моделирует подсистему журналов контроллера: функциональные
// блоки GetIdent и Write, которые вызываются циклически до Done или Error,
// и синхронный клиент поверх них.
package arlog

import (
	"time"

	"github.com/iwtcode/buildver/cstring"
)

// Ident - непрозрачный идентификатор открытого журнала. Ноль недействителен.
type Ident uint32

// RecordID - номер записи внутри журнала.
type RecordID uint32

// AddFormat - формат дополнительных данных записи.
type AddFormat uint8

const (
	AddFormatBinary AddFormat = iota
	AddFormatText
)

const (
	// UserLogbook - встроенный пользовательский журнал контроллера.
	UserLogbook = "$arlogusr"

	nameSize     = 257
	objectIDSize = 37
)

// GetIdent - контекст вызова, разрешающего имя журнала в Ident.
type GetIdent struct {
	Execute bool
	Name    [nameSize]byte

	Done     bool
	Busy     bool
	Error    bool
	StatusID Status
	Ident    Ident
}

// SetName записывает имя журнала с обрезкой до размера поля.
func (fb *GetIdent) SetName(name string) {
	cstring.Copy(fb.Name[:], []byte(name))
}

func (fb *GetIdent) NameString() string {
	return cstring.String(fb.Name[:])
}

// Write - контекст вызова, добавляющего одну запись в журнал.
type Write struct {
	Execute        bool
	Ident          Ident
	EventID        EventID
	OriginRecordID RecordID
	ObjectID       [objectIDSize]byte
	AddDataFormat  AddFormat
	AddData        []byte
	AddDataSize    uint32
	TimeStamp      time.Time

	Done     bool
	Busy     bool
	Error    bool
	StatusID Status
	RecordID RecordID
}

// SetObjectID записывает метку источника с обрезкой до размера поля.
func (fb *Write) SetObjectID(id string) {
	cstring.Copy(fb.ObjectID[:], []byte(id))
}

func (fb *Write) ObjectIDString() string {
	return cstring.String(fb.ObjectID[:])
}

// Runtime - подсистема журналов. Каждый метод - один вызов функционального блока за цикл:
// передний фронт Execute запускает запрос, выходы защелкиваются до снятия Execute,
// вызов со сброшенным Execute освобождает контекст и обнуляет выходы.
type Runtime interface {
	GetIdent(fb *GetIdent)
	Write(fb *Write)
}
