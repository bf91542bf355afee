package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSimple(t *testing.T) {
	l := Parse("echo hello world")
	assert.Equal(t, [][]string{{"echo", "hello", "world"}}, l.Stages)
	assert.False(t, l.Background)
	assert.False(t, l.RedirectError)
}

func TestParsePipeline(t *testing.T) {
	l := Parse("cat file.txt | grep foo | wc -l")
	assert.Equal(t, [][]string{
		{"cat", "file.txt"},
		{"grep", "foo"},
		{"wc", "-l"},
	}, l.Stages)
}

func TestParseBackground(t *testing.T) {
	l := Parse("sleep 10 &")
	assert.True(t, l.Background)
	assert.Equal(t, [][]string{{"sleep", "10"}}, l.Stages)
}

func TestParseInputRedirect(t *testing.T) {
	l := Parse("sort < names.txt")
	assert.Equal(t, "names.txt", l.InFile)
	assert.Equal(t, [][]string{{"sort"}}, l.Stages)
}

func TestParseOutputRedirectTruncateAndAppend(t *testing.T) {
	l := Parse("echo hi > out.txt")
	assert.Equal(t, "out.txt", l.OutFile)
	assert.False(t, l.AppendOut)

	l2 := Parse("echo hi >> out.txt")
	assert.Equal(t, "out.txt", l2.OutFile)
	assert.True(t, l2.AppendOut)
}

func TestParseErrorRedirect(t *testing.T) {
	l := Parse("cmd 2> err.log")
	assert.Equal(t, "err.log", l.ErrFile)
	assert.False(t, l.AppendErr)

	l2 := Parse("cmd 2>> err.log")
	assert.True(t, l2.AppendErr)
}

func TestParseRedirectBoth(t *testing.T) {
	l := Parse("cmd >& both.log")
	assert.Equal(t, "both.log", l.OutFile)
	assert.Equal(t, "both.log", l.ErrFile)
}

func TestParseConflictingRedirectsFlagged(t *testing.T) {
	l := Parse("cmd > a.txt > b.txt")
	assert.True(t, l.RedirectError)
}

func TestParseInputRedirectOnLastStageRejected(t *testing.T) {
	l := Parse("echo hi | cat < names.txt")
	assert.True(t, l.RedirectError)
}

func TestParseEmptyLine(t *testing.T) {
	l := Parse("   ")
	assert.Empty(t, l.Stages)
}

func TestParseDanglingOperator(t *testing.T) {
	l := Parse("echo hi >")
	assert.True(t, l.RedirectError)
}
