package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/WangWilly/tweetsim/pkgs/database"
	"github.com/WangWilly/tweetsim/pkgs/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
database:
  type: postgres
  host: db.internal
  port: "5433"
  user: tweets
  dbname: tweets_db
encoder:
  type: http
  url: http://encoder:8001
  dimensions: 384
  request_timeout: 5s
similarity:
  workers: 4
  cache: true
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadConfig(t *testing.T) {
	conf, err := ReadConfig(writeFile(t, sample))
	require.NoError(t, err)

	assert.Equal(t, database.DATABASE_TYPE_POSTGRES, conf.Database.Type)
	assert.Equal(t, "5433", conf.Database.Port)
	assert.Equal(t, embedding.ENCODER_TYPE_HTTP, conf.Encoder.Type)
	assert.Equal(t, 384, conf.Encoder.Dimensions)
	assert.Equal(t, 5*time.Second, conf.Encoder.RequestTimeout)
	assert.Equal(t, 4, conf.Similarity.Workers)
	assert.True(t, conf.Similarity.Cache)
	// untouched sections keep defaults
	assert.Equal(t, 8080, conf.Server.Port)
	assert.Equal(t, "bert-base-uncased", conf.Encoder.Model)
	assert.NoError(t, conf.Validate())
}

func TestWriteConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	conf := DefaultConfig()
	conf.Similarity.Workers = 8
	require.NoError(t, WriteConfig(path, conf))

	got, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, conf, got)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TWEETSIM_DB_TYPE":            "sqlite",
		"TWEETSIM_DB_PATH":            "/tmp/x.db",
		"TWEETSIM_ENCODER_DIMENSIONS": "128",
		"TWEETSIM_ENCODER_TIMEOUT":    "2s",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	conf := DefaultConfig()
	require.NoError(t, conf.ApplyEnv(lookup))
	assert.Equal(t, "/tmp/x.db", conf.Database.Path)
	assert.Equal(t, 128, conf.Encoder.Dimensions)
	assert.Equal(t, 2*time.Second, conf.Encoder.RequestTimeout)

	env["TWEETSIM_SERVER_PORT"] = "eighty"
	assert.ErrorContains(t, conf.ApplyEnv(lookup), "TWEETSIM_SERVER_PORT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad db", func(c *Config) { c.Database.Type = "mysql" }, "unsupported database type"},
		{"sqlite without path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"bad encoder", func(c *Config) { c.Encoder.Type = "word2vec" }, "unsupported encoder type"},
		{"onnx without model", func(c *Config) { c.Encoder.Type = embedding.ENCODER_TYPE_ONNX }, "model_path"},
		{"zero dims", func(c *Config) { c.Encoder.Dimensions = 0 }, "dimensions"},
		{"bad lemmatizer", func(c *Config) { c.Normalizer.Lemmatizer = "wordnet" }, "lemmatizer"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := DefaultConfig()
			tt.mutate(conf)
			err := conf.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.errMsg)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("TWEETSIM_DB_TYPE", "sqlite")
	t.Setenv("TWEETSIM_DB_PATH", filepath.Join(t.TempDir(), "env.db"))

	conf, err := Load(writeFile(t, sample))
	require.NoError(t, err)
	assert.Equal(t, database.DATABASE_TYPE_SQLITE, conf.Database.Type)
	assert.Equal(t, 384, conf.Encoder.Dimensions)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
