package reactor

import "fmt"

// --------------------------------------------------------------------------
// Built-in Commands
// --------------------------------------------------------------------------

// ShutdownCommand instructs the command loop to tear down its session.
// Enqueued at the front of the queue it implements graceful close: commands
// queued before it are either drained (graceful) or dropped (immediate)
// depending on the close mode.
type ShutdownCommand struct {
	mode CloseMode
}

// NewShutdownCommand creates a shutdown command with the given close mode
func NewShutdownCommand(mode CloseMode) *ShutdownCommand {
	return &ShutdownCommand{mode: mode}
}

func (c *ShutdownCommand) Execute(s ISession) error {
	s.Shutdown(c.mode)
	return nil
}

func (c *ShutdownCommand) String() string {
	return fmt.Sprintf("shutdown(%s)", c.mode)
}

// FuncCommand adapts a plain function to the ICommand interface
type FuncCommand func(s ISession) error

func (f FuncCommand) Execute(s ISession) error {
	return f(s)
}

func (f FuncCommand) String() string {
	return "func"
}
