package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() Catalog {
	return Catalog{
		Text: map[string]string{
			"!discord": "https://discord.gg/example",
			"!echo":    "text table wins",
		},
		Functions: map[string]string{
			"!echo2": "echo",
			"!about": "about",
			"!gpt":   "gpt",
		},
	}
}

func TestDispatchEcho(t *testing.T) {
	d, err := NewDispatcher(Catalog{Functions: map[string]string{"!echo": "echo"}}, Builtins())
	require.NoError(t, err)

	reply, ok := d.Dispatch("!echo hello world")
	require.True(t, ok)
	assert.Equal(t, "hello world", reply)

	reply, ok = d.Dispatch("!echo")
	require.True(t, ok)
	assert.Equal(t, `An argument was not provided! Usage: "!echo hello world"`, reply)

	reply, ok = d.Dispatch("!echo   spaced    out ")
	require.True(t, ok)
	assert.Equal(t, "spaced out", reply)
}

func TestDispatchUnknownIsSilent(t *testing.T) {
	d, err := NewDispatcher(testCatalog(), Builtins())
	require.NoError(t, err)

	reply, ok := d.Dispatch("!unknowncmd")
	assert.False(t, ok)
	assert.Empty(t, reply)
}

func TestDispatchIgnoresNonCommands(t *testing.T) {
	d, err := NewDispatcher(testCatalog(), Builtins())
	require.NoError(t, err)

	for _, text := range []string{"", "hello", " !discord", "discord!"} {
		_, ok := d.Dispatch(text)
		assert.False(t, ok, text)
	}
}

func TestDispatchPrefersTextTable(t *testing.T) {
	d, err := NewDispatcher(testCatalog(), Builtins())
	require.NoError(t, err)

	reply, ok := d.Dispatch("!echo ignored args")
	require.True(t, ok)
	assert.Equal(t, "text table wins", reply)

	reply, ok = d.Dispatch("!discord")
	require.True(t, ok)
	assert.Equal(t, "https://discord.gg/example", reply)

	reply, ok = d.Dispatch("!gpt what is go")
	require.True(t, ok)
	assert.Equal(t, notImplemented, reply)
}

func TestNewDispatcherRejectsUnknownHandler(t *testing.T) {
	_, err := NewDispatcher(Catalog{Functions: map[string]string{"!ban": "banHammer"}}, Builtins())
	require.ErrorIs(t, err, ErrUnknownHandler)
}

func TestDispatcherIsolatedFromCatalog(t *testing.T) {
	catalog := testCatalog()
	d, err := NewDispatcher(catalog, Builtins())
	require.NoError(t, err)

	catalog.Text["!discord"] = "mutated"
	reply, _ := d.Dispatch("!discord")
	assert.Equal(t, "https://discord.gg/example", reply)
}

func TestHandlersAreDeterministic(t *testing.T) {
	for id, handler := range Builtins() {
		args := []string{"a", "b"}
		assert.Equal(t, handler(args), handler(args), id)
		assert.Equal(t, []string{"a", "b"}, args, id)
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	body := `{"text": {"!hi": "hello"}, "functions": {"!echo": "echo"}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", catalog.Text["!hi"])
	assert.Equal(t, "echo", catalog.Functions["!echo"])

	d, err := NewDispatcher(catalog, Builtins())
	require.NoError(t, err)
	assert.Equal(t, []string{"!echo", "!hi"}, d.Names())
}
