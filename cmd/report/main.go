package main

import (
	"os"

	"github.com/andresuchdata/storepulse/backend-go/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		logger.Log.Debug().Err(err).Msg("no .env file loaded")
	}

	app := &cli.App{
		Name:  "report",
		Usage: "Generate retail KPI reports from the fact files",
		Flags: globalFlags(),
		Before: func(c *cli.Context) error {
			logger.Configure(c.String("log-level"), c.String("log-format"))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "store-sales",
				Usage:  "Daily sales per store as a spreadsheet",
				Flags:  reportFlags(),
				Action: reportAction(kindStoreSales),
			},
			{
				Name:   "employee-sales",
				Usage:  "Daily sales per employee as a spreadsheet",
				Flags:  reportFlags(),
				Action: reportAction(kindEmployeeSales),
			},
			{
				Name:   "store-daily",
				Usage:  "Month-to-date store performance document",
				Flags:  reportFlags(),
				Action: reportAction(kindStoreDaily),
			},
			{
				Name:   "employee-mtd",
				Usage:  "Month-to-date employee performance document",
				Flags:  reportFlags(),
				Action: reportAction(kindEmployeeMTD),
			},
			{
				Name:  "product-analysis",
				Usage: "Product, category and basket analysis document",
				Flags: append(reportFlags(),
					&cli.StringFlag{
						Name:    "store",
						Usage:   "Store id, or \"all\"",
						Value:   "all",
						EnvVars: []string{"REPORT_STORE_ID"},
					},
					&cli.StringFlag{
						Name:    "mode",
						Usage:   "Product period mode",
						Value:   "mtd",
						EnvVars: []string{"REPORT_PRODUCT_MODE"},
					},
					&cli.BoolFlag{
						Name:    "detailed",
						Usage:   "Add one detail page per store",
						EnvVars: []string{"REPORT_DETAILED"},
					},
					&cli.StringSliceFlag{
						Name:  "skip",
						Usage: "Sections to leave out: performance, advanced, store-breakdown, category-details",
					},
				),
				Action: reportAction(kindProductAnalysis),
			},
			{
				Name:  "target-setting",
				Usage: "Last-year baseline sheet for next month's targets",
				Flags: append(reportFlags(),
					&cli.StringFlag{
						Name:    "month",
						Usage:   "Target month (YYYY-MM)",
						EnvVars: []string{"REPORT_TARGET_MONTH"},
					},
					&cli.PathFlag{
						Name:    "targets-file",
						Usage:   "JSON object of store id to new target",
						EnvVars: []string{"REPORT_TARGETS_FILE"},
					},
				),
				Action: reportAction(kindTargetSetting),
			},
			{
				Name:  "batch",
				Usage: "Render the daily report set into the output directory",
				Flags: append(reportFlags(),
					&cli.IntFlag{
						Name:    "workers",
						Usage:   "Concurrent report workers",
						Value:   4,
						EnvVars: []string{"REPORT_WORKER_COUNT"},
					},
					&cli.DurationFlag{
						Name:    "job-timeout",
						Usage:   "Deadline per report",
						Value:   0,
						EnvVars: []string{"REPORT_JOB_TIMEOUT"},
					},
				),
				Action: runBatch,
			},
			{
				Name:   "managers",
				Usage:  "List store managers",
				Action: listManagers,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("report failed")
	}
}
