// Command myshell is a small interactive Unix shell: it reads a line,
// builds a pipeline from it, and executes that pipeline, repeating until
// stdin is closed.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"myshell/internal/parser"

	shell "myshell"
)

func main() {
	sh := shell.NewShell(os.Args[0])
	reaper := shell.NewReaper(sh)
	expander := shell.NewExpander(sh, reaper)
	executor := shell.NewExecutor(sh, reaper, expander)

	sh.Prompt()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			sh.Prompt()
			continue
		}
		cmd := shell.BuildCommand(parser.Parse(line))
		executor.Execute(cmd)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "myshell:", err)
		os.Exit(1)
	}
}
