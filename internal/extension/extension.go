// Package extension hosts ftpc's command surface.  An Extension
// registers named commands on a Context when activated and releases its
// resources when deactivated; front ends (the CLI shell, tests) dispatch
// through Context.Run.
package extension

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	ftperr "ftpc/internal/errors"
	"ftpc/util"
)

var (
	ErrUnknownCommand   = ftperr.New("unknown command")
	ErrDuplicateCommand = ftperr.New("command already registered")
	ErrUsage            = ftperr.New("usage")
)

// Extension is a unit of functionality the host activates once and
// deactivates at shutdown.
type Extension interface {
	Activate(ctx context.Context, c *Context) error
	Deactivate(ctx context.Context, c *Context) error
}

// Handler runs one command invocation.
type Handler func(ctx context.Context, args []string) error

// Command is a registered command.
type Command struct {
	Name        string
	Description string
	Handler     Handler
}

// Context is the registry extensions publish commands into.  It is safe
// for concurrent use.
type Context struct {
	mu       sync.RWMutex
	commands map[string]Command
	out      io.Writer
	logger   *util.Logger
}

// NewContext returns an empty registry writing command output to out.
func NewContext(out io.Writer, logger *util.Logger) *Context {
	if logger == nil {
		logger = util.NewLogger(0)
	}
	return &Context{
		commands: make(map[string]Command),
		out:      out,
		logger:   logger,
	}
}

// Out is where command handlers print results.
func (c *Context) Out() io.Writer { return c.out }

// Logger returns the host logger.
func (c *Context) Logger() *util.Logger { return c.logger }

// RegisterCommand adds a command.  Names must be non-empty and unique.
func (c *Context) RegisterCommand(name, description string, h Handler) error {
	if name == "" {
		return fmt.Errorf("register command: empty name")
	}
	if h == nil {
		return fmt.Errorf("register command %q: nil handler", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.commands[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	c.commands[name] = Command{Name: name, Description: description, Handler: h}
	c.logger.Debug("registered command %s", name)
	return nil
}

// Run dispatches name with args.
func (c *Context) Run(ctx context.Context, name string, args []string) error {
	c.mu.RLock()
	cmd, ok := c.commands[name]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return cmd.Handler(ctx, args)
}

// Commands returns the registrations sorted by name.
func (c *Context) Commands() []Command {
	c.mu.RLock()
	out := make([]Command, 0, len(c.commands))
	for _, cmd := range c.commands {
		out = append(out, cmd)
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (c *Context) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out, format, args...)
}

func usage(format string) error {
	return fmt.Errorf("%w: %s", ErrUsage, format)
}
