package shell

import (
	"io"
	"os"
	"strconv"
	"strings"
)

// shellPrompt is the literal prompt string the sub-shell protocol strips
// from captured output (spec.md §4.2). It must match Shell.Prompt's
// output exactly.
const shellPrompt = "myshell>"

// Expander is the Argument Expander component (spec.md §4.2). It needs
// the shell's process-wide state for the special variables (${$}, ${?},
// ${!}, ${_}, ${SHELL}) and the reaper to wait on the command-substitution
// subshell it spawns.
type Expander struct {
	shell  *Shell
	reaper *Reaper
}

// NewExpander constructs an Expander bound to shell state and the reaper.
func NewExpander(s *Shell, r *Reaper) *Expander {
	return &Expander{shell: s, reaper: r}
}

// Expand transforms a single argument word: first every $(...) command
// substitution is replaced with the captured stdout of running its
// contents in a sub-shell, then every ${NAME} reference is replaced with
// its value. Running substitution before variable expansion means
// variable-looking text in a subcommand's own output is never re-expanded
// (spec.md §4.2).
func (e *Expander) Expand(word string) string {
	return e.expandVariables(e.expandSubshells(word))
}

// expandSubshells replaces every balanced $(...) with the subshell's
// captured output. An unmatched opening $( is emitted literally.
func (e *Expander) expandSubshells(s string) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if i+1 < len(s) && s[i] == '$' && s[i+1] == '(' {
			end, ok := findMatchingParen(s, i+2)
			if !ok {
				out.WriteByte(s[i])
				i++
				continue
			}
			cmdText := s[i+2 : end]
			out.WriteString(e.runSubshell(cmdText))
			i = end + 1
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// findMatchingParen scans s starting at start (just after "$(") for the
// ")" that closes the opening paren, tracking nested "$(" … ")" pairs.
// It returns the index of the matching ")" and true, or false if the
// nesting never closes.
func findMatchingParen(s string, start int) (int, bool) {
	depth := 1
	i := start
	for i < len(s) {
		if i+1 < len(s) && s[i] == '$' && s[i+1] == '(' {
			depth++
			i += 2
			continue
		}
		if s[i] == ')' {
			depth--
			if depth == 0 {
				return i, true
			}
		}
		i++
	}
	return 0, false
}

// expandVariables replaces every ${NAME} with its value. An unmatched
// opening ${ (no closing }) is emitted literally, one character at a
// time, and scanning continues — spec.md §4.2.
func (e *Expander) expandVariables(s string) string {
	var out strings.Builder
	i := 0
	for i < len(s) {
		if i+1 < len(s) && s[i] == '$' && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				out.WriteByte(s[i])
				i++
				continue
			}
			name := s[i+2 : i+2+end]
			out.WriteString(e.lookupVariable(name))
			i = i + 2 + end + 1
			continue
		}
		out.WriteByte(s[i])
		i++
	}
	return out.String()
}

// lookupVariable resolves one ${NAME} reference per the table in
// spec.md §4.2.
func (e *Expander) lookupVariable(name string) string {
	switch name {
	case "$":
		return strconv.Itoa(os.Getpid())
	case "?":
		return strconv.Itoa(e.shell.LastReturnCode())
	case "!":
		return strconv.Itoa(e.shell.LastBackgroundPid())
	case "_":
		return e.shell.LastArgument()
	case "SHELL":
		return e.shell.ShellPath()
	default:
		return os.Getenv(name)
	}
}

// runSubshell implements the sub-shell protocol of spec.md §4.2: pipe
// "<cmdtext>\nexit\n" into a fresh invocation of the shell executable,
// capture its stdout to EOF, and post-process the result.
func (e *Expander) runSubshell(cmdText string) string {
	pinR, pinW, err := os.Pipe()
	if err != nil {
		return ""
	}
	poutR, poutW, err := os.Pipe()
	if err != nil {
		pinR.Close()
		pinW.Close()
		return ""
	}

	files := [3]*os.File{pinR, poutW, os.Stderr}
	proc, err := startProcess(e.shell.rawShellPath(), []string{e.shell.rawShellPath()}, os.Environ(), "", files)
	// The child now owns its own copies of pinR/poutW; close the parent's.
	pinR.Close()
	poutW.Close()
	if err != nil {
		pinW.Close()
		poutR.Close()
		return ""
	}

	// Register before writing a single byte: the subshell can run to
	// completion and be reaped by the SIGCHLD handler well before
	// io.ReadAll below returns, so the wait channel must already exist.
	wait := e.reaper.Register(proc.Pid)

	if _, err := io.WriteString(pinW, cmdText+"\nexit\n"); err != nil {
		debug().Debugw("subshell write failed", "err", err)
	}
	pinW.Close()

	output, err := io.ReadAll(poutR)
	poutR.Close()
	if err != nil {
		debug().Debugw("subshell read failed", "err", err)
	}

	<-wait

	return postProcessSubshellOutput(string(output))
}

// postProcessSubshellOutput applies spec.md §4.2's heuristic cleanup:
// strip every literal occurrence of the shell's own prompt, collapse
// newlines to spaces, truncate at the first "exit" token, and trim
// trailing whitespace. This is known to be fragile (the spec's own open
// question) but is preserved exactly rather than replaced.
func postProcessSubshellOutput(s string) string {
	s = strings.ReplaceAll(s, shellPrompt, "")
	s = strings.ReplaceAll(s, "\n", " ")
	if idx := strings.Index(s, "exit"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimRight(s, " \t")
}
