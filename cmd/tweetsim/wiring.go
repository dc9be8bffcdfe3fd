package main

import (
	"context"
	"fmt"
	"os"

	"github.com/WangWilly/tweetsim/pkgs/config"
	"github.com/WangWilly/tweetsim/pkgs/database"
	"github.com/WangWilly/tweetsim/pkgs/embedding"
	"github.com/WangWilly/tweetsim/pkgs/ingestion"
	"github.com/WangWilly/tweetsim/pkgs/logger"
	"github.com/WangWilly/tweetsim/pkgs/repos/tweetrepo"
	"github.com/WangWilly/tweetsim/pkgs/sentiment"
	"github.com/WangWilly/tweetsim/pkgs/similarity"
	"github.com/WangWilly/tweetsim/pkgs/textnorm"
	"github.com/jmoiron/sqlx"
	"github.com/urfave/cli/v2"
)

var logFile *os.File

func setupLogging(c *cli.Context) error {
	if path := c.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f
		logger.InitLogger(c.Bool("debug"), f)
		return nil
	}
	logger.InitLogger(c.Bool("debug"), nil)
	return nil
}

func closeLogging(c *cli.Context) error {
	if logFile != nil {
		return logFile.Close()
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////

func loadConfig(c *cli.Context) (*config.Config, error) {
	conf, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return conf, nil
}

func openStore(ctx context.Context, conf *config.Config) (*sqlx.DB, error) {
	db, err := database.ConnectWithConfig(conf.Database)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newNormalizer(conf config.NormalizerConfig) (*textnorm.Normalizer, error) {
	lemmatizer, err := textnorm.NewLemmatizer(conf.Lemmatizer)
	if err != nil {
		return nil, err
	}
	return textnorm.New(
		textnorm.WithLemmatizer(lemmatizer),
		textnorm.WithStopWords(conf.StopWords...),
	)
}

func newEncoder(conf embedding.Config) (embedding.Encoder, error) {
	enc, err := embedding.New(conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}
	if logFile != nil {
		logger.SetEncoderClientLogger(enc, logFile)
	}
	return enc, nil
}

func newEngine(conf config.SimilarityConfig, db *sqlx.DB) (*similarity.Engine, error) {
	return similarity.New(
		tweetrepo.NewVectorStore(tweetrepo.New(), db),
		similarity.WithWorkers(conf.Workers),
		similarity.WithCache(conf.Cache),
	)
}

// newPipeline wires the ingestion stages. The returned encoder must be closed
// by the caller once the pipeline is no longer used.
func newPipeline(conf *config.Config, db *sqlx.DB, opts ...ingestion.Option) (*ingestion.Pipeline, embedding.Encoder, error) {
	normalizer, err := newNormalizer(conf.Normalizer)
	if err != nil {
		return nil, nil, err
	}
	analyzer, err := sentiment.NewAnalyzer()
	if err != nil {
		return nil, nil, err
	}
	enc, err := newEncoder(conf.Encoder)
	if err != nil {
		return nil, nil, err
	}

	pipeline, err := ingestion.New(normalizer, embedding.NewGenerator(enc), analyzer, tweetrepo.New(), db, opts...)
	if err != nil {
		enc.Close()
		return nil, nil, err
	}
	return pipeline, enc, nil
}
