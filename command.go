package shell

// SimpleCommand is a single program invocation within a pipeline: a
// program name plus argument words, spec.md §3. Words are appended by the
// producer (the parser); the executor may replace words in place once
// they've been expanded (spec.md §4.2).
type SimpleCommand struct {
	// Args holds the program name followed by its arguments. Args[0] is
	// the program name.
	Args []string
}

// NewSimpleCommand constructs an empty SimpleCommand.
func NewSimpleCommand() *SimpleCommand {
	return &SimpleCommand{}
}

// AppendArg appends a single argument word.
func (c *SimpleCommand) AppendArg(word string) {
	c.Args = append(c.Args, word)
}

// Command is a pipeline: an ordered sequence of one or more
// SimpleCommands plus redirection and background-execution fields
// (spec.md §3).
//
// Per the redesign note in spec.md §9, redirection targets are plain
// string fields rather than aliased pointers: the `>&` construct (which
// redirects both stdout and stderr to the same target) simply assigns the
// same string value to both OutFile and ErrFile. There is no shared
// backing allocation to double-free, so the class of bug the original
// implementation's sameOutErr bookkeeping existed to avoid cannot occur
// here.
type Command struct {
	simpleCommands []*SimpleCommand

	// InFile, OutFile, ErrFile are redirection targets. An empty string
	// means "no redirection for this stream" — spec.md never needs to
	// distinguish an empty-string path from an absent one.
	InFile  string
	OutFile string
	ErrFile string

	// AppendOut and AppendErr select O_APPEND over O_TRUNC for OutFile
	// and ErrFile respectively.
	AppendOut bool
	AppendErr bool

	// Background, if true, means the executor does not wait for the
	// pipeline's children.
	Background bool

	// RedirectError is a sticky flag the producer sets when it detects a
	// contradictory redirection (e.g. both `>` and `>&` targeting
	// different files); such a command is discarded silently.
	RedirectError bool
}

// NewCommand constructs an empty Command, matching a freshly-cleared one.
func NewCommand() *Command {
	return &Command{}
}

// AppendSimpleCommand adds a stage to the pipeline.
func (c *Command) AppendSimpleCommand(sc *SimpleCommand) {
	c.simpleCommands = append(c.simpleCommands, sc)
}

// SimpleCommands returns the pipeline's stages in order.
func (c *Command) SimpleCommands() []*SimpleCommand {
	return c.simpleCommands
}

// Empty reports whether the command has no stages, which (together with
// RedirectError) is the guard condition in spec.md §4.1 step 1.
func (c *Command) Empty() bool {
	return len(c.simpleCommands) == 0
}

// Clear resets the Command to the same state as NewCommand, per the
// invariant in spec.md §3 ("After execute, the Command is reset to the
// same state as freshly constructed").
func (c *Command) Clear() {
	c.simpleCommands = nil
	c.InFile = ""
	c.OutFile = ""
	c.ErrFile = ""
	c.AppendOut = false
	c.AppendErr = false
	c.Background = false
	c.RedirectError = false
}

// RedirectBoth sets both OutFile and ErrFile to the same path — the `>&`
// construct (spec.md §6). Each field holds its own copy of the string
// value; Go strings are immutable, so "copy" here is free and there is no
// aliasing to track.
func (c *Command) RedirectBoth(path string) {
	c.OutFile = path
	c.ErrFile = path
}
