package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WangWilly/tweetsim/pkgs/clients/chromaclient"
	"github.com/WangWilly/tweetsim/pkgs/config"
	"github.com/WangWilly/tweetsim/pkgs/frequency"
	"github.com/WangWilly/tweetsim/pkgs/ingestion"
	"github.com/WangWilly/tweetsim/pkgs/model"
	"github.com/WangWilly/tweetsim/pkgs/repos/tweetrepo"
	"github.com/WangWilly/tweetsim/pkgs/server"
	"github.com/gookit/color"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

////////////////////////////////////////////////////////////////////////////////
// ingest
////////////////////////////////////////////////////////////////////////////////

func ingestCommand(c *cli.Context) error {
	ctx := c.Context
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, conf)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, enc, err := newPipeline(conf, db)
	if err != nil {
		return err
	}
	defer enc.Close()

	var feed io.Reader = os.Stdin
	if path := c.String("feed"); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open feed: %w", err)
		}
		defer f.Close()
		feed = f
	}

	report, runErr := pipeline.Run(ctx, feed)
	printReport(c.App.Writer, report)
	return runErr
}

func printReport(w io.Writer, report *ingestion.Report) {
	if report == nil {
		return
	}
	fmt.Fprintf(w, "run %s: %s committed, %s skipped of %d lines in %s\n",
		report.RunID,
		color.FgGreen.Render(report.Committed),
		color.FgYellow.Render(report.Skipped),
		report.Lines,
		report.Duration.Round(time.Millisecond),
	)
	for _, err := range report.Errors {
		fmt.Fprintln(w, "  ", color.FgRed.Render(err.Error()))
	}
}

////////////////////////////////////////////////////////////////////////////////
// similar
////////////////////////////////////////////////////////////////////////////////

func similarCommand(c *cli.Context) error {
	ctx := c.Context
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, conf)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := newEngine(conf.Similarity, db)
	if err != nil {
		return err
	}
	defer engine.Close()

	matches, err := engine.TopKSimilar(ctx, c.Int64("id"), c.Int("top"))
	if err != nil {
		return err
	}

	repo := tweetrepo.New()
	for i, m := range matches {
		tweet, err := repo.GetById(ctx, db, m.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%2d. %s %s %s\n",
			i+1,
			color.FgLightBlue.Render(fmt.Sprintf("#%d", m.ID)),
			color.FgGreen.Render(fmt.Sprintf("%.4f", m.Score)),
			tweet.DisplayText(),
		)
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// frequent
////////////////////////////////////////////////////////////////////////////////

func frequentCommand(c *cli.Context) error {
	ctx := c.Context
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, conf)
	if err != nil {
		return err
	}
	defer db.Close()

	var words []frequency.WordCount
	if c.Bool("renormalize") {
		words, err = rankFullTexts(c, conf, db)
	} else {
		var texts []string
		texts, err = tweetrepo.New().ListTexts(ctx, db)
		if err == nil {
			words, err = frequency.Rank(texts, c.Int("n"))
		}
	}
	if err != nil {
		return err
	}

	for i, wc := range words {
		fmt.Fprintf(c.App.Writer, "%2d. %s %d\n", i+1, color.FgLightBlue.Render(wc.Word), wc.Count)
	}
	return nil
}

// rankFullTexts recounts from the stored full texts with the configured
// normalizer, for stores ingested under different normalizer settings.
func rankFullTexts(c *cli.Context, conf *config.Config, db *sqlx.DB) ([]frequency.WordCount, error) {
	normalizer, err := newNormalizer(conf.Normalizer)
	if err != nil {
		return nil, err
	}

	var texts []string
	err = tweetrepo.New().ScanAll(c.Context, db, func(t *model.Tweet) error {
		texts = append(texts, t.FullText)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frequency.RankRaw(normalizer, texts, c.Int("n"))
}

////////////////////////////////////////////////////////////////////////////////
// serve
////////////////////////////////////////////////////////////////////////////////

func serveCommand(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	if port := c.Int("port"); port > 0 {
		conf.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openStore(ctx, conf)
	if err != nil {
		return err
	}
	defer db.Close()

	engine, err := newEngine(conf.Similarity, db)
	if err != nil {
		return err
	}
	defer engine.Close()

	var opts []server.Option
	if c.Bool("allow-ingest") {
		pipeline, enc, err := newPipeline(conf, db, ingestion.WithOnCommit(func(*model.Tweet) {
			engine.Invalidate()
		}))
		if err != nil {
			return err
		}
		defer enc.Close()
		opts = append(opts, server.WithIngester(pipeline))
	}

	srv := server.NewServerWithConfig(db, conf.ServerAddr(), engine, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.WithField("caller", "serveCommand").Info("shutting down server")
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// export-chroma
////////////////////////////////////////////////////////////////////////////////

func exportChromaCommand(c *cli.Context) error {
	ctx := c.Context
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	if url := c.String("chroma-url"); url != "" {
		conf.Chroma.URL = url
	}
	if name := c.String("collection"); name != "" {
		conf.Chroma.Collection = name
	}

	db, err := openStore(ctx, conf)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := chromaclient.New(ctx, conf.Chroma.URL, conf.Chroma.Collection)
	if err != nil {
		return err
	}
	defer client.Close()

	batch := make([]*model.Tweet, 0, chromaclient.BATCH_SIZE)
	exported := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := client.UpsertTweets(ctx, batch); err != nil {
			return err
		}
		exported += len(batch)
		batch = batch[:0]
		return nil
	}

	err = tweetrepo.New().ScanAll(ctx, db, func(t *model.Tweet) error {
		batch = append(batch, t)
		if len(batch) == chromaclient.BATCH_SIZE {
			return flush()
		}
		return nil
	})
	if err == nil {
		err = flush()
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "exported %s tweets to %s\n",
		color.FgGreen.Render(exported),
		color.FgLightBlue.Render(conf.Chroma.Collection),
	)
	return nil
}
