package runtime

// Command is a request crossing from a caller goroutine into the render loop.
type Command interface {
	isCommand()
	// Kind names the command for logs and metrics.
	Kind() string
	// Target is the identifier of the widget the command addresses.
	Target() string
}

// Result is the reply to a Get.
type Result struct {
	Value any
	Err   error
}

// Get reads a property. The loop answers on Reply, which must be buffered.
type Get struct {
	Widget   string
	Property string
	Reply    chan Result
}

func (Get) isCommand()       {}
func (Get) Kind() string     { return "get" }
func (c Get) Target() string { return c.Widget }

// Set writes a property. Value has already been prepared by the widget schema.
type Set struct {
	Widget   string
	Property string
	Value    any
}

func (Set) isCommand()       {}
func (Set) Kind() string     { return "set" }
func (c Set) Target() string { return c.Widget }

// Subscribe adds a handler for a widget signal.
type Subscribe struct {
	Widget   string
	Signal   string
	Handler  Handler
	Detached bool
}

func (Subscribe) isCommand()       {}
func (Subscribe) Kind() string     { return "subscribe" }
func (c Subscribe) Target() string { return c.Widget }

// fail resolves a command that will never be applied.
func fail(cmd Command, err error) {
	if g, ok := cmd.(Get); ok {
		g.Reply <- Result{Err: err}
	}
}
