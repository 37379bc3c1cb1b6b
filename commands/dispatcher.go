package commands

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Sentinel открывает каждую команду.
const Sentinel = "!"

// ErrUnknownHandler означает, что в таблице функций указан несуществующий обработчик.
var ErrUnknownHandler = errors.New("commands: unknown handler")

// Dispatcher разрешает команды по неизменяемым таблицам.
type Dispatcher struct {
	text      map[string]string
	functions map[string]Handler
}

// NewDispatcher проверяет, что каждая запись таблицы функций ссылается
// на существующий обработчик, и строит диспетчер.
func NewDispatcher(catalog Catalog, handlers map[string]Handler) (*Dispatcher, error) {
	d := &Dispatcher{
		text:      maps.Clone(catalog.Text),
		functions: make(map[string]Handler, len(catalog.Functions)),
	}
	if d.text == nil {
		d.text = map[string]string{}
	}

	for _, name := range slices.Sorted(maps.Keys(catalog.Functions)) {
		id := catalog.Functions[name]
		handler, ok := handlers[id]
		if !ok || handler == nil {
			return nil, fmt.Errorf("%w: %s -> %q", ErrUnknownHandler, name, id)
		}
		d.functions[name] = handler
	}

	return d, nil
}

// Dispatch возвращает ответ на команду. при ok == false ответа нет:
// сообщение не команда или команда неизвестна.
func (d *Dispatcher) Dispatch(text string) (reply string, ok bool) {
	if !strings.HasPrefix(text, Sentinel) {
		return "", false
	}

	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}
	name, args := fields[0], fields[1:]

	if reply, ok := d.text[name]; ok {
		return reply, true
	}
	if handler, ok := d.functions[name]; ok {
		return handler(slices.Clone(args)), true
	}
	return "", false
}

// Names возвращает отсортированный список известных команд.
func (d *Dispatcher) Names() []string {
	names := slices.Collect(maps.Keys(d.text))
	names = append(names, slices.Collect(maps.Keys(d.functions))...)
	slices.Sort(names)
	return slices.Compact(names)
}
