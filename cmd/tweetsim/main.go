package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalln(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tweetsim",
		Usage: "ingest tweets, embed them and query similar tweets",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file",
				EnvVars: []string{"TWEETSIM_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Display debug messages",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Mirror log entries to this file",
			},
		},
		Before: setupLogging,
		After:  closeLogging,
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Manage the database schema",
				Subcommands: []*cli.Command{
					{Name: "up", Usage: "Run all pending migrations", Action: migrateUpCommand},
					{Name: "down", Usage: "Revert all migrations", Action: migrateDownCommand},
					{Name: "version", Usage: "Print the current schema version", Action: migrateVersionCommand},
				},
			},
			{
				Name:   "ingest",
				Usage:  "Ingest a line-delimited JSON tweet feed",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "feed",
						Aliases:  []string{"f"},
						Usage:    "Path to the feed file, - for stdin",
						Required: true,
					},
				},
			},
			{
				Name:   "similar",
				Usage:  "List the tweets most similar to a stored tweet",
				Action: similarCommand,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "id",
						Usage:    "Id of the query tweet",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "Number of results",
						Value: 10,
					},
				},
			},
			{
				Name:   "frequent",
				Usage:  "List the most frequent words of the stored canonical texts",
				Action: frequentCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "n",
						Usage: "Number of words",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "renormalize",
						Usage: "Recount from full texts with the configured normalizer",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the JSON query API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "port",
						Usage: "Listen port, overrides server.port",
					},
					&cli.BoolFlag{
						Name:  "allow-ingest",
						Usage: "Accept JSON-lines feeds on POST /tweets/ingest",
					},
				},
			},
			{
				Name:   "export-chroma",
				Usage:  "Mirror stored tweets and vectors into a Chroma collection",
				Action: exportChromaCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "chroma-url",
						Usage: "Chroma base URL, overrides chroma.url",
					},
					&cli.StringFlag{
						Name:  "collection",
						Usage: "Collection name, overrides chroma.collection",
					},
				},
			},
		},
	}
}
