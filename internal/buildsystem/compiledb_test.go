package buildsystem

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgsPrefersArgumentsOverCommand(t *testing.T) {
	c := CompileCommand{
		Command:   "clang -c foo.c",
		Arguments: []string{"clang", "-c", "foo.c", "-DFOO"},
	}
	args, err := c.Args(ShellPOSIX)
	require.NoError(t, err)
	assert.Equal(t, []string{"clang", "-c", "foo.c", "-DFOO"}, args)
}

func TestArgsFallsBackToCommandSplitPOSIX(t *testing.T) {
	c := CompileCommand{Command: `clang -c "foo bar.c" -DNAME='hi there'`}
	args, err := c.Args(ShellPOSIX)
	require.NoError(t, err)
	assert.Equal(t, []string{"clang", "-c", "foo bar.c", "-DNAME=hi there"}, args)
}

func TestArgsFallsBackToCommandSplitWindows(t *testing.T) {
	c := CompileCommand{Command: `cl.exe /c "foo bar.c" /DX`}
	args, err := c.Args(ShellWindows)
	require.NoError(t, err)
	assert.Equal(t, []string{"cl.exe", "/c", "foo bar.c", "/DX"}, args)
}

func TestArgsErrorsWhenNeitherPresent(t *testing.T) {
	c := CompileCommand{File: "foo.c"}
	_, err := c.Args(ShellPOSIX)
	assert.Error(t, err)
}

func TestArgsErrorsOnUnterminatedQuote(t *testing.T) {
	c := CompileCommand{Command: `clang -c "unterminated`}
	_, err := c.Args(ShellPOSIX)
	assert.Error(t, err)
}

func TestParseCompileCommandsParsesEntries(t *testing.T) {
	const doc = `[
		{"directory": "/proj", "file": "a.c", "arguments": ["clang", "-c", "a.c"]},
		{"directory": "/proj", "file": "b.c", "command": "clang -c b.c"}
	]`
	entries, err := ParseCompileCommands(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.c", entries[0].File)
	assert.Equal(t, "clang -c b.c", entries[1].Command)
}

func TestParseCompileCommandsRejectsMalformedJSON(t *testing.T) {
	_, err := ParseCompileCommands(strings.NewReader(`{not valid`))
	assert.Error(t, err)
}

func TestParseCompileFlagsPrependsCompilerAndSkipsBlankLines(t *testing.T) {
	const doc = "-DFOO\n\n  -Iinclude  \n-Wall\n"
	args, err := ParseCompileFlags(strings.NewReader(doc), "clang")
	require.NoError(t, err)
	assert.Equal(t, []string{"clang", "-DFOO", "-Iinclude", "-Wall"}, args)
}

func TestParseCompileFlagsEmptyFileYieldsOnlyCompilerName(t *testing.T) {
	args, err := ParseCompileFlags(strings.NewReader(""), "clang")
	require.NoError(t, err)
	assert.Equal(t, []string{"clang"}, args)
}
