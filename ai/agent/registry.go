package agent

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

var (
	errEmptyCommandName = errors.New("command name is required")
	errNilHandler       = errors.New("command handler is required")
)

// Registry holds commands keyed by exact, case-sensitive name.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

// Register upserts cmd. A later registration under the same name replaces
// the earlier one; replaced reports whether that happened.
func (r *Registry) Register(cmd Command) (replaced bool, err error) {
	cmd.Name = strings.TrimPrefix(strings.TrimSpace(cmd.Name), "/")
	if cmd.Name == "" {
		return false, errEmptyCommandName
	}
	if cmd.Handler == nil {
		return false, errNilHandler
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced = r.commands[cmd.Name]
	r.commands[cmd.Name] = cmd
	return replaced, nil
}

// Get looks up a command by exact name.
func (r *Registry) Get(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[name]
	return cmd, ok
}

// List returns all commands sorted by name.
func (r *Registry) List() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of registered commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}
