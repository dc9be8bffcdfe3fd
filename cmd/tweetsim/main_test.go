package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testFeed = `{"document": {"created_at": "Thu Nov 01 14:05:11 +0000 2018", "lang": "en", "text": "Voters are heading to the polls"}}
{"document": {"created_at": "Thu Nov 01 15:05:11 +0000 2018", "lang": "en", "text": "Voters heading to the polls early"}}
{"document": {"created_at": "Fri Nov 02 09:00:00 +0000 2018", "lang": "en", "text": "broken
{"document": {"created_at": "Fri Nov 02 10:00:00 +0000 2018", "lang": "en", "text": "Great rally downtown tonight"}}
`

func writeTestConfig(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	confPath := filepath.Join(dir, "config.yaml")
	conf := "database:\n  type: sqlite\n  path: " + filepath.Join(dir, "tweets.db") + "\n" +
		"encoder:\n  type: hash\n  dimensions: 32\n"
	require.NoError(t, os.WriteFile(confPath, []byte(conf), 0644))

	feedPath := filepath.Join(dir, "tweets.jl")
	require.NoError(t, os.WriteFile(feedPath, []byte(testFeed), 0644))
	return confPath, feedPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"tweetsim"}, args...))
	return out.String(), err
}

func TestCLI_EndToEnd(t *testing.T) {
	confPath, feedPath := writeTestConfig(t)

	out, err := run(t, "--config", confPath, "ingest", "--feed", feedPath)
	require.NoError(t, err)
	assert.Contains(t, out, "committed")
	assert.Contains(t, out, "line 3")

	out, err = run(t, "--config", confPath, "similar", "--id", "1", "--top", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Voters heading to the polls early")
	assert.Contains(t, out, "Great rally downtown tonight")

	out, err = run(t, "--config", confPath, "frequent", "--n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "head")
	assert.Contains(t, out, "poll")

	renormalized, err := run(t, "--config", confPath, "frequent", "--n", "2", "--renormalize")
	require.NoError(t, err)
	assert.Equal(t, out, renormalized)

	_, err = run(t, "--config", confPath, "similar", "--id", "99")
	assert.Error(t, err)
}

func TestCLI_Migrate(t *testing.T) {
	confPath, _ := writeTestConfig(t)

	out, err := run(t, "--config", confPath, "migrate", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 0")

	out, err = run(t, "--config", confPath, "migrate", "up")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 1")

	out, err = run(t, "--config", confPath, "migrate", "down")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 0")
}

func TestCLI_RequiredFlags(t *testing.T) {
	_, err := run(t, "ingest")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed")

	_, err = run(t, "similar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "id")
}

func TestCLI_CommandDefaults(t *testing.T) {
	app := newApp()
	names := []string{}
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"migrate", "ingest", "similar", "frequent", "serve", "export-chroma"}, names)

	similar := app.Command("similar")
	require.NotNil(t, similar)
	for _, flag := range similar.Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == "top" {
			assert.Equal(t, 10, f.Value)
		}
	}
}
