package shell

import (
	"os"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExpander(t *testing.T) *Expander {
	t.Helper()
	s := NewShell("/bin/myshell")
	r := sharedTestReaper()
	return NewExpander(s, r)
}

func TestExpandVariablesPid(t *testing.T) {
	e := newTestExpander(t)
	got := e.Expand("${$}")
	assert.Equal(t, strconv.Itoa(os.Getpid()), got)
}

func TestExpandVariablesLastArgument(t *testing.T) {
	e := newTestExpander(t)
	e.shell.setLastArgument("foo.txt")
	assert.Equal(t, "foo.txt", e.Expand("${_}"))
}

func TestExpandVariablesReturnCodeAndBackgroundPid(t *testing.T) {
	e := newTestExpander(t)
	e.shell.setLastReturnCode(7)
	e.shell.setLastBackgroundPid(42)
	assert.Equal(t, "7", e.Expand("${?}"))
	assert.Equal(t, "42", e.Expand("${!}"))
}

func TestExpandVariablesEnv(t *testing.T) {
	e := newTestExpander(t)
	t.Setenv("MYSHELL_TEST_VAR", "hello")
	assert.Equal(t, "hello", e.Expand("${MYSHELL_TEST_VAR}"))
}

func TestExpandVariablesUnmatchedBraceIsLiteral(t *testing.T) {
	e := newTestExpander(t)
	assert.Equal(t, "${UNCLOSED", e.Expand("${UNCLOSED"))
}

func TestFindMatchingParenNested(t *testing.T) {
	s := "echo $(outer $(inner)) tail"
	end, ok := findMatchingParen(s, len("echo $("))
	require.True(t, ok)
	assert.Equal(t, "outer $(inner)", s[len("echo $("):end])
}

func TestFindMatchingParenUnbalanced(t *testing.T) {
	_, ok := findMatchingParen("$(no closer", 2)
	assert.False(t, ok)
}

func TestPostProcessSubshellOutput(t *testing.T) {
	raw := "myshell>hello\nmyshell>world\nmyshell>exit\n"
	got := postProcessSubshellOutput(raw)
	assert.Equal(t, "hello world", got)
}

func TestExpandSubshellsLeavesUnmatchedLiteral(t *testing.T) {
	e := newTestExpander(t)
	got := e.expandSubshells("price: $(")
	assert.Equal(t, "price: $(", got)
}
