// Package export публикует переменные процесса для внешнего прохода регистрации
// (OPC-UA сервер, скрейпер метрик), который обходит их по имени.
package export

import (
	"errors"
	"sort"
	"sync"
)

var ErrEmptyName = errors.New("export: empty variable name")

// Registry - таблица опубликованных переменных.
type Registry struct {
	mu   sync.RWMutex
	vars map[string]any
}

func NewRegistry() *Registry {
	return &Registry{vars: make(map[string]any)}
}

// Publish делает value видимой под именем name. Повторная публикация заменяет значение.
func (r *Registry) Publish(name string, value any) error {
	if name == "" {
		return ErrEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vars[name] = value
	return nil
}

func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vars[name]
	return v, ok
}

// Names возвращает отсортированные имена опубликованных переменных.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.vars))
	for name := range r.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Walk обходит переменные в порядке имен, пока fn возвращает true.
func (r *Registry) Walk(fn func(name string, value any) bool) {
	for _, name := range r.Names() {
		v, ok := r.Lookup(name)
		if !ok {
			continue
		}
		if !fn(name, v) {
			return
		}
	}
}
