package console

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"sync"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrNotAdmin       = errors.New("command requires admin")
	ErrRateLimited    = errors.New("too many commands")
	ErrEmptyCommand   = errors.New("empty command")
)

// HandlerFunc runs a command. Commands report problems through the log and
// never fail the caller.
type HandlerFunc func(caller Caller, args []string)

// ConCmd is a registered console command.
type ConCmd struct {
	Name  string
	Help  string
	Admin bool
	Run   HandlerFunc
}

// Registry dispatches console lines to registered commands.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]ConCmd
	limiter  *RateLimiter

	// OnDispatch, when set, is told the outcome of every Dispatch.
	OnDispatch func(name string, err error)
}

// NewRegistry creates a registry. limiter may be nil to disable limiting.
func NewRegistry(limiter *RateLimiter) *Registry {
	return &Registry{commands: make(map[string]ConCmd), limiter: limiter}
}

// Register adds cmd. Names are case-insensitive and must be unique.
func (r *Registry) Register(cmd ConCmd) error {
	if cmd.Name == "" || cmd.Run == nil {
		return fmt.Errorf("console command needs a name and a handler")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(cmd.Name)
	if _, exists := r.commands[key]; exists {
		return fmt.Errorf("console command %q already registered", cmd.Name)
	}
	cmd.Name = key
	r.commands[key] = cmd
	return nil
}

// Lookup returns the command registered as name.
func (r *Registry) Lookup(name string) (ConCmd, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[strings.ToLower(name)]
	return cmd, ok
}

// Commands lists every command sorted by name.
func (r *Registry) Commands() []ConCmd {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ConCmd, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b ConCmd) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Dispatch parses line and runs it for caller.
func (r *Registry) Dispatch(caller Caller, line string) error {
	name, args := Parse(line)
	err := r.dispatch(caller, name, args)
	if r.OnDispatch != nil {
		r.OnDispatch(name, err)
	}
	return err
}

func (r *Registry) dispatch(caller Caller, name string, args []string) error {
	if name == "" {
		return ErrEmptyCommand
	}
	cmd, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	if cmd.Admin && (caller == nil || !caller.IsAdmin()) {
		log.Printf("🚫 %s tried admin command %s", callerName(caller), name)
		return fmt.Errorf("%w: %s", ErrNotAdmin, name)
	}
	if r.limiter != nil && caller != nil && !r.limiter.Allow(caller.CallerID()) {
		return fmt.Errorf("%w: %s", ErrRateLimited, callerName(caller))
	}

	cmd.Run(caller, args)
	return nil
}

func callerName(c Caller) string {
	if c == nil {
		return "<server>"
	}
	return c.Name()
}
