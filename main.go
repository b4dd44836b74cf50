package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Saghetti0/obsidian-publish-downloader/internal/download"
	"github.com/Saghetti0/obsidian-publish-downloader/internal/history"
	"github.com/Saghetti0/obsidian-publish-downloader/models"
	"github.com/Saghetti0/obsidian-publish-downloader/pkg/help"
	"github.com/urfave/cli/v2"
)

func downloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Value: "opd.yaml",
			Usage: "YAML file with download settings (ignored if the default is missing)",
		},
		&cli.IntFlag{
			Name:    "workers",
			Aliases: []string{"w"},
			Value:   models.DefaultWorkerCount,
			Usage:   "number of parallel downloads",
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Value: models.DefaultChunkSize,
			Usage: "bytes per write when streaming a file to disk",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Value: 0,
			Usage: "per-file deadline, e.g. 30s (0 disables)",
		},
		&cli.StringFlag{
			Name:  "scheme",
			Value: models.DefaultScheme,
			Usage: "URL scheme used for cache and asset requests",
		},
		&cli.StringFlag{
			Name:  "user-agent",
			Value: models.DefaultUserAgent,
			Usage: "User-Agent header sent with every request",
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "error log path (default: <log-dir>/download-<timestamp>.log)",
		},
		&cli.StringFlag{
			Name:  "log-dir",
			Value: ".",
			Usage: "directory for the timestamped error log",
		},
		&cli.StringFlag{
			Name:  "db",
			Usage: "run history database path (default: next to the binary)",
		},
		&cli.BoolFlag{
			Name:  "no-history",
			Usage: "do not record this run in the history database",
		},
		&cli.StringFlag{
			Name:  "format",
			Value: "text",
			Usage: "summary format: text, yaml or json",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "only print errors and the summary",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "debug logging",
		},
	}
}

func main() {
	app := &cli.App{
		Name:      "opd",
		Usage:     "download every file of a published Obsidian site",
		UsageText: "opd [options] URL FOLDER",
		Flags:     downloadFlags(),
		Action:    download.DownloadAction,
		Commands: []*cli.Command{
			{
				Name:      "download",
				Usage:     "download a published site into FOLDER",
				ArgsUsage: "URL FOLDER",
				Flags:     downloadFlags(),
				Action:    download.DownloadAction,
			},
			{
				Name:  "history",
				Usage: "list past download runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Value: 20,
						Usage: "maximum number of runs to list",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "run history database path (default: next to the binary)",
					},
				},
				Action: history.ListAction,
				Subcommands: []*cli.Command{
					{
						Name:      "show",
						Usage:     "show one run and its failed files",
						ArgsUsage: "RUN_ID",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "db",
								Usage: "run history database path (default: next to the binary)",
							},
						},
						Action: history.ShowAction,
					},
				},
			},
			{
				Name:  "quickstart",
				Usage: "print a short YAML guide to commands, config and exit codes",
				Action: func(c *cli.Context) error {
					doc, err := help.Coldstart()
					if err != nil {
						return err
					}
					fmt.Fprint(c.App.Writer, doc)
					return nil
				},
			},
		},
		Compiled: time.Now(),
	}

	if err := app.Run(os.Args); err != nil {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			// cli.HandleExitCoder has already printed and exited for Action
			// errors; this covers errors raised before any action ran.
			fmt.Fprintln(os.Stderr, exitErr.Error())
			os.Exit(exitErr.ExitCode())
		}
		log.Fatal(err)
	}
}
