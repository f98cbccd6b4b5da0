package view

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ErrUnknownCommand is returned by Dispatch for an unregistered command.
var ErrUnknownCommand = errors.New("unknown command")

// Command is one UI event: a name plus its arguments.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits an input line into a Command. ok is false for a blank line.
func ParseCommand(line string) (cmd Command, ok bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, false
	}
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

// Handler runs a command.
type Handler func(ctx context.Context, args []string) error

// dispatcher maps command names to handlers.
type dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

func (d *dispatcher) register(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handlers == nil {
		d.handlers = make(map[string]Handler)
	}
	d.handlers[strings.ToLower(name)] = h
}

func (d *dispatcher) dispatch(ctx context.Context, cmd Command) error {
	d.mu.RLock()
	h, ok := d.handlers[cmd.Name]
	d.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Name)
	}
	return h(ctx, cmd.Args)
}

func (d *dispatcher) names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Sorted(maps.Keys(d.handlers))
}
