package arlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultPollInterval - пауза между циклическими вызовами функционального блока.
const DefaultPollInterval = time.Millisecond

var errNoStatus = errors.New("call failed without status")

// Entry - содержимое одной записи журнала.
type Entry struct {
	EventID        EventID
	ObjectID       string
	Format         AddFormat
	Data           []byte
	OriginRecordID RecordID
	TimeStamp      time.Time
}

// TextEntry собирает текстовую запись. text должен оканчиваться терминатором,
// если он пришел из cstring.Buffer.Bytes; иначе терминатор добавляется.
func TextEntry(id EventID, objectID string, text []byte) Entry {
	data := text
	if len(data) == 0 || data[len(data)-1] != 0 {
		data = append(append([]byte(nil), text...), 0)
	}
	return Entry{EventID: id, ObjectID: objectID, Format: AddFormatText, Data: data}
}

// Client скрывает циклический опрос функциональных блоков за синхронными вызовами.
// Каждый вызов опрашивается до Done или Error и затем всегда освобождается.
type Client struct {
	rt       Runtime
	interval time.Duration
	logger   logrus.FieldLogger
}

// ClientOption настраивает Client.
type ClientOption func(*Client)

// WithPollInterval задает паузу между вызовами; d <= 0 - без паузы.
func WithPollInterval(d time.Duration) ClientOption {
	return func(c *Client) { c.interval = d }
}

// WithLogger задает логгер для трассировки вызовов.
func WithLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient создает клиента подсистемы журналов.
func NewClient(rt Runtime, opts ...ClientOption) *Client {
	c := &Client{rt: rt, interval: DefaultPollInterval}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		c.logger = l
	}
	return c
}

// Release освобождает контекст вызова: сбрасывает Execute и выполняет последний вызов.
// Повторный вызов ничего не делает.
type Release func()

func releaseOnce(fn func()) Release {
	var once sync.Once
	return func() { once.Do(fn) }
}

// GetIdent разрешает имя журнала в Ident. При ошибке возвращается последний
// выданный блоком Ident (обычно 0) вместе с ошибкой.
func (c *Client) GetIdent(ctx context.Context, name string) (Ident, error) {
	ident, release, err := c.HoldIdent(ctx, name)
	release()
	return ident, err
}

// HoldIdent работает как GetIdent, но оставляет контекст вызова занятым до release.
// release нужно вызвать в любом случае, в том числе при ошибке.
func (c *Client) HoldIdent(ctx context.Context, name string) (Ident, Release, error) {
	fb := &GetIdent{}
	fb.SetName(name)
	fb.Execute = true

	err := c.poll(ctx, func() (bool, bool, Status) {
		c.rt.GetIdent(fb)
		return fb.Done, fb.Error, fb.StatusID
	})
	ident := fb.Ident
	release := releaseOnce(func() {
		fb.Execute = false
		c.rt.GetIdent(fb)
	})

	if err != nil {
		return ident, release, fmt.Errorf("ArEventLogGetIdent(%q): %w", name, err)
	}
	c.logger.WithFields(logrus.Fields{"logbook": name, "ident": ident}).Debug("Идентификатор журнала получен")
	return ident, release, nil
}

// Write добавляет запись e в журнал ident.
func (c *Client) Write(ctx context.Context, ident Ident, e Entry) (RecordID, error) {
	id, release, err := c.HoldWrite(ctx, ident, e)
	release()
	return id, err
}

// HoldWrite работает как Write, но освобождает контекст вызова только через release.
func (c *Client) HoldWrite(ctx context.Context, ident Ident, e Entry) (RecordID, Release, error) {
	fb := &Write{
		Ident:          ident,
		EventID:        e.EventID,
		OriginRecordID: e.OriginRecordID,
		AddDataFormat:  e.Format,
		AddData:        e.Data,
		AddDataSize:    uint32(len(e.Data)),
		TimeStamp:      e.TimeStamp,
	}
	fb.SetObjectID(e.ObjectID)
	fb.Execute = true

	err := c.poll(ctx, func() (bool, bool, Status) {
		c.rt.Write(fb)
		return fb.Done, fb.Error, fb.StatusID
	})
	id := fb.RecordID
	release := releaseOnce(func() {
		fb.Execute = false
		c.rt.Write(fb)
	})

	if err != nil {
		return 0, release, fmt.Errorf("ArEventLogWrite(ident=%d, event=%s): %w", ident, e.EventID, err)
	}
	c.logger.WithFields(logrus.Fields{"ident": ident, "record_id": id}).Debug("Запись в журнал выполнена")
	return id, release, nil
}

// poll вызывает call до Done или Error. Таймаута нет, кроме отмены ctx.
func (c *Client) poll(ctx context.Context, call func() (done, failed bool, status Status)) error {
	var ticker *time.Ticker
	if c.interval > 0 {
		ticker = time.NewTicker(c.interval)
		defer ticker.Stop()
	}

	for {
		done, failed, status := call()
		switch {
		case done:
			return nil
		case failed && status == StatusOK:
			return errNoStatus
		case failed:
			return status
		}

		if ticker == nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
