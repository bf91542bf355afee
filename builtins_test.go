package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testReaperOnce sync.Once
	testReaper     *Reaper
)

// sharedTestReaper returns the one Reaper every test in this package uses.
// Each Reaper reaps with waitpid(-1, WNOHANG) on every SIGCHLD, so a second
// Reaper in the same process would collect children registered with another
// one and leave that one's waiters blocked.
func sharedTestReaper() *Reaper {
	testReaperOnce.Do(func() { testReaper = NewReaper(NewShell("/bin/myshell")) })
	return testReaper
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	s := NewShell("/bin/myshell")
	r := sharedTestReaper()
	e := NewExpander(s, r)
	return NewExecutor(s, r, e)
}

func TestIsBuiltin(t *testing.T) {
	assert.True(t, isBuiltin("cd"))
	assert.True(t, isBuiltin("printenv"))
	assert.False(t, isBuiltin("ls"))
}

func TestBuiltinPrintenv(t *testing.T) {
	t.Setenv("MYSHELL_PRINTENV_TEST", "present")
	var out, errBuf bytes.Buffer
	ex := newTestExecutor(t)
	dispatchBuiltin(ex, []string{"printenv"}, &out, &errBuf)
	assert.Contains(t, out.String(), "MYSHELL_PRINTENV_TEST=present")
	assert.Equal(t, 0, ex.shell.LastReturnCode())
}

func TestBuiltinSetenvTooFewArgs(t *testing.T) {
	var out, errBuf bytes.Buffer
	ex := newTestExecutor(t)
	dispatchBuiltin(ex, []string{"setenv", "ONLYNAME"}, &out, &errBuf)
	assert.Equal(t, "setenv: Too few arguments\n", errBuf.String())
	assert.Equal(t, 0, ex.shell.LastReturnCode())
}

func TestBuiltinSetenvAndUnsetenv(t *testing.T) {
	var out, errBuf bytes.Buffer
	ex := newTestExecutor(t)
	dispatchBuiltin(ex, []string{"setenv", "MYSHELL_SETENV_TEST", "v1"}, &out, &errBuf)
	require.Equal(t, "v1", os.Getenv("MYSHELL_SETENV_TEST"))

	dispatchBuiltin(ex, []string{"unsetenv", "MYSHELL_SETENV_TEST"}, &out, &errBuf)
	assert.Equal(t, "", os.Getenv("MYSHELL_SETENV_TEST"))
}

func TestBuiltinUnsetenvTooFewArgs(t *testing.T) {
	var out, errBuf bytes.Buffer
	ex := newTestExecutor(t)
	dispatchBuiltin(ex, []string{"unsetenv"}, &out, &errBuf)
	assert.Equal(t, "unsetenv: Too few arguments\n", errBuf.String())
}

func TestBuiltinCdNoHome(t *testing.T) {
	t.Setenv("HOME", "")
	var out, errBuf bytes.Buffer
	ex := newTestExecutor(t)
	dispatchBuiltin(ex, []string{"cd"}, &out, &errBuf)
	assert.Equal(t, "cd: HOME not set\n", errBuf.String())
}

func TestBuiltinCdBadDir(t *testing.T) {
	var out, errBuf bytes.Buffer
	ex := newTestExecutor(t)
	dispatchBuiltin(ex, []string{"cd", "/no/such/dir/myshell-test"}, &out, &errBuf)
	assert.True(t, strings.HasPrefix(errBuf.String(), "cd: can't cd to"))
}

func TestBuiltinCdToTempDir(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(cwd)

	var out, errBuf bytes.Buffer
	ex := newTestExecutor(t)
	dispatchBuiltin(ex, []string{"cd", dir}, &out, &errBuf)
	assert.Empty(t, errBuf.String())

	got, err := os.Getwd()
	require.NoError(t, err)
	wantResolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, wantResolved, got)
}

func TestBuiltinSourceMissingFile(t *testing.T) {
	var out, errBuf bytes.Buffer
	ex := newTestExecutor(t)
	dispatchBuiltin(ex, []string{"source", "/no/such/file.sh"}, &out, &errBuf)
	assert.Equal(t, "source: can't open /no/such/file.sh\n", errBuf.String())
}

func TestBuiltinSourceTooFewArgs(t *testing.T) {
	var out, errBuf bytes.Buffer
	ex := newTestExecutor(t)
	dispatchBuiltin(ex, []string{"source"}, &out, &errBuf)
	assert.Equal(t, "source: Too few arguments\n", errBuf.String())
}
