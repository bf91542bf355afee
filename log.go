package shell

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

// debugLogger is the internal diagnostics logger described in
// SPEC_FULL.md §10.2. It is never used for the protocol output spec.md
// mandates (perror-style messages, the background-job banner, etc) —
// those are always raw writes to the correct fd. It exists purely so a
// developer running with MYSHELL_DEBUG set can see built-in errors,
// non-zero pipeline stage exits, and command-substitution I/O failures.
var (
	debugOnce sync.Once
	debugLog  *zap.SugaredLogger
)

func debug() *zap.SugaredLogger {
	debugOnce.Do(func() {
		if os.Getenv("MYSHELL_DEBUG") == "" {
			debugLog = zap.NewNop().Sugar()
			return
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			debugLog = zap.NewNop().Sugar()
			return
		}
		debugLog = l.Sugar()
	})
	return debugLog
}
