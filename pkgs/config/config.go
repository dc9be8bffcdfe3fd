package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/WangWilly/tweetsim/pkgs/database"
	"github.com/WangWilly/tweetsim/pkgs/embedding"
	"github.com/WangWilly/tweetsim/pkgs/textnorm"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

////////////////////////////////////////////////////////////////////////////////
// Configuration Structures
////////////////////////////////////////////////////////////////////////////////

type NormalizerConfig struct {
	Lemmatizer string   `yaml:"lemmatizer"` // "rules" or "snowball"
	StopWords  []string `yaml:"extra_stop_words,omitempty"` // added to the built-in list
}

type SimilarityConfig struct {
	Workers int  `yaml:"workers"`
	Cache   bool `yaml:"cache"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type ChromaConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
}

type Config struct {
	Database   database.DatabaseConfig `yaml:"database"`
	Encoder    embedding.Config        `yaml:"encoder"`
	Normalizer NormalizerConfig        `yaml:"normalizer"`
	Similarity SimilarityConfig        `yaml:"similarity"`
	Server     ServerConfig            `yaml:"server"`
	Chroma     ChromaConfig            `yaml:"chroma"`
}

func DefaultConfig() *Config {
	return &Config{
		Database: database.DatabaseConfig{
			Type: database.DATABASE_TYPE_SQLITE,
			Path: "tweets.db",
			Host: "localhost",
			Port: "5432",
		},
		Encoder: embedding.DefaultConfig(),
		Normalizer: NormalizerConfig{
			Lemmatizer: textnorm.LEMMATIZER_RULES,
		},
		Similarity: SimilarityConfig{
			Workers: 1,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Chroma: ChromaConfig{
			URL:        "http://localhost:8000",
			Collection: "tweets",
		},
	}
}

////////////////////////////////////////////////////////////////////////////////
// Configuration Management Functions
////////////////////////////////////////////////////////////////////////////////

// Load reads .env (if any), then the YAML file at path on top of the
// defaults (an empty path skips the file), then TWEETSIM_* overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	conf := DefaultConfig()
	if path != "" {
		if err := readInto(path, conf); err != nil {
			return nil, err
		}
	}

	if err := conf.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// ReadConfig reads a YAML configuration on top of the defaults.
func ReadConfig(path string) (*Config, error) {
	conf := DefaultConfig()
	if err := readInto(path, conf); err != nil {
		return nil, err
	}
	return conf, nil
}

func readInto(path string, conf *Config) error {
	file, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, conf); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// WriteConfig writes configuration to the specified path
func WriteConfig(path string, conf *Config) error {
	file, err := os.OpenFile(path, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0666)
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := yaml.Marshal(conf)
	if err != nil {
		return err
	}
	_, err = io.Copy(file, bytes.NewReader(data))
	return err
}

////////////////////////////////////////////////////////////////////////////////
// Environment Overrides
////////////////////////////////////////////////////////////////////////////////

// ApplyEnv overrides file values with TWEETSIM_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	logger := log.WithFields(log.Fields{
		"caller": "Config.ApplyEnv",
	})

	strVars := map[string]*string{
		"TWEETSIM_DB_TYPE":            &c.Database.Type,
		"TWEETSIM_DB_HOST":            &c.Database.Host,
		"TWEETSIM_DB_PORT":            &c.Database.Port,
		"TWEETSIM_DB_USER":            &c.Database.User,
		"TWEETSIM_DB_PASSWORD":        &c.Database.Password,
		"TWEETSIM_DB_NAME":            &c.Database.DBName,
		"TWEETSIM_DB_PATH":            &c.Database.Path,
		"TWEETSIM_ENCODER_TYPE":       &c.Encoder.Type,
		"TWEETSIM_ENCODER_MODEL":      &c.Encoder.Model,
		"TWEETSIM_ENCODER_URL":        &c.Encoder.URL,
		"TWEETSIM_ENCODER_TOKEN":      &c.Encoder.Token,
		"TWEETSIM_ENCODER_MODEL_PATH": &c.Encoder.ModelPath,
		"TWEETSIM_ENCODER_VOCAB_PATH": &c.Encoder.VocabPath,
		"TWEETSIM_CHROMA_URL":         &c.Chroma.URL,
	}
	for key, dst := range strVars {
		if v, ok := lookup(key); ok {
			*dst = v
			logger.WithField("key", key).Debug("config overridden from env")
		}
	}

	intVars := map[string]*int{
		"TWEETSIM_ENCODER_DIMENSIONS": &c.Encoder.Dimensions,
		"TWEETSIM_SIMILARITY_WORKERS": &c.Similarity.Workers,
		"TWEETSIM_SERVER_PORT":        &c.Server.Port,
	}
	for key, dst := range intVars {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = n
	}

	if v, ok := lookup("TWEETSIM_ENCODER_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TWEETSIM_ENCODER_TIMEOUT: %w", err)
		}
		c.Encoder.RequestTimeout = d
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Database.Type {
	case database.DATABASE_TYPE_SQLITE:
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case database.DATABASE_TYPE_POSTGRES:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("database.host and database.dbname are required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %q", c.Database.Type)
	}

	switch c.Encoder.Type {
	case embedding.ENCODER_TYPE_HASH, embedding.ENCODER_TYPE_HTTP, embedding.ENCODER_TYPE_OPENAI:
	case embedding.ENCODER_TYPE_ONNX:
		if c.Encoder.ModelPath == "" || c.Encoder.VocabPath == "" {
			return errors.New("encoder.model_path and encoder.vocab_path are required for onnx")
		}
	default:
		return fmt.Errorf("unsupported encoder type: %q", c.Encoder.Type)
	}
	if c.Encoder.Dimensions <= 0 {
		return fmt.Errorf("encoder.dimensions must be positive, got %d", c.Encoder.Dimensions)
	}

	switch c.Normalizer.Lemmatizer {
	case textnorm.LEMMATIZER_RULES, textnorm.LEMMATIZER_SNOWBALL:
	default:
		return fmt.Errorf("unsupported lemmatizer: %q", c.Normalizer.Lemmatizer)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

func (c *Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
