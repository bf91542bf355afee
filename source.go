package shell

import (
	"bufio"
	"os"
	"strings"

	"myshell/internal/parser"
)

// sourceFile implements Script Sourcing (spec.md §4.5): read file line by
// line, building and running a Command for each non-blank line, with
// interactive prompting suspended for the duration. isTerminal and
// commandRunning are saved and restored around the read exactly as the
// original implementation's source() does around its own recursive call,
// per spec.md §9's note that this now happens through field assignment
// rather than through save/restore of file-scope statics.
func (ex *Executor) sourceFile(file *os.File) error {
	savedTerminal := ex.shell.isTerminalCached()
	savedRunning := ex.shell.isCommandRunning()
	ex.shell.setIsTerminalCached(false)
	defer func() {
		ex.shell.setIsTerminalCached(savedTerminal)
		ex.shell.setCommandRunning(savedRunning)
	}()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		cmd := BuildCommand(parser.Parse(line))
		ex.execute(cmd)
	}
	return scanner.Err()
}

// BuildCommand translates a parsed line into the Command/SimpleCommand
// values the executor operates on. Kept separate from package parser so
// that package has no dependency on the shell package's types — it only
// produces plain data (spec.md §14). Exported so cmd/myshell's read loop
// can use it directly.
func BuildCommand(l parser.Line) *Command {
	cmd := NewCommand()
	cmd.InFile = l.InFile
	cmd.OutFile = l.OutFile
	cmd.ErrFile = l.ErrFile
	cmd.AppendOut = l.AppendOut
	cmd.AppendErr = l.AppendErr
	cmd.Background = l.Background
	cmd.RedirectError = l.RedirectError

	for _, words := range l.Stages {
		sc := NewSimpleCommand()
		for _, w := range words {
			sc.AppendArg(w)
		}
		cmd.AppendSimpleCommand(sc)
	}
	return cmd
}
