package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/urfave/cli/v2"

	"github.com/vitalchart/vitalchart"
	"github.com/vitalchart/vitalchart/export"
	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/plot"
	"github.com/vitalchart/vitalchart/plot/indicator"
	"github.com/vitalchart/vitalchart/source"
	"github.com/vitalchart/vitalchart/storage"
	"github.com/vitalchart/vitalchart/tools/log"
)

var (
	settingsFlag = &cli.StringFlag{
		Name:    "settings",
		Aliases: []string{"s"},
		Usage:   "panel settings (json)",
		Value:   "settings.json",
		EnvVars: []string{"VITALCHART_SETTINGS"},
	}
	databaseFlag = &cli.StringFlag{
		Name:    "db",
		Usage:   "database file",
		Value:   "vitalchart.db",
		EnvVars: []string{"VITALCHART_DB"},
	}
	driverFlag = &cli.StringFlag{
		Name:    "driver",
		Usage:   "storage driver: bunt or sqlite",
		Value:   "bunt",
		EnvVars: []string{"VITALCHART_DRIVER"},
	}
	logLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "debug, info, warn or error",
		Value:   "info",
		EnvVars: []string{"VITALCHART_LOG_LEVEL"},
	}
	startFlag = &cli.TimestampFlag{
		Name:   "start",
		Usage:  "eg. 2024-01-01",
		Layout: "2006-01-02",
	}
	endFlag = &cli.TimestampFlag{
		Name:   "end",
		Usage:  "eg. 2024-02-01",
		Layout: "2006-01-02",
	}
	daysFlag = &cli.IntFlag{
		Name:    "days",
		Aliases: []string{"d"},
		Usage:   "last N days, ignored when start is set",
		Value:   30,
	}
)

func main() {
	app := &cli.App{
		Name:     "vitalchart",
		HelpName: "vitalchart",
		Usage:    "Serve, import and export patient time-series charts",
		Commands: []*cli.Command{
			{
				Name:     "serve",
				HelpName: "serve",
				Usage:    "Serve the chart HTTP interface",
				Flags: []cli.Flag{
					settingsFlag, databaseFlag, driverFlag, logLevelFlag,
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   8080,
						EnvVars: []string{"VITALCHART_PORT"},
					},
					&cli.StringFlag{
						Name:  "preset",
						Usage: "initial range preset, defaults to the broadest one",
					},
					&cli.IntFlag{
						Name:  "trend",
						Usage: "trend overlay period, 0 disables overlays",
						Value: 0,
					},
				},
				Action: serve,
			},
			{
				Name:     "import",
				HelpName: "import",
				Usage:    "Import readings and annotations from CSV files",
				Flags: []cli.Flag{
					settingsFlag, databaseFlag, driverFlag, logLevelFlag,
					&cli.StringSliceFlag{
						Name:     "panel",
						Usage:    "panel=file.csv, may be repeated",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "annotations",
						Usage: "annotations csv (time,label[,id,...])",
					},
				},
				Action: importCSV,
			},
			{
				Name:     "export",
				HelpName: "export",
				Usage:    "Export panel readings to CSV",
				Flags: []cli.Flag{
					settingsFlag, databaseFlag, driverFlag, logLevelFlag, startFlag, endFlag, daysFlag,
					&cli.StringFlag{
						Name:     "panel",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Required: true,
					},
					&cli.StringFlag{
						Name:  "batch",
						Usage: "time span of each read, eg. 6h, 1d",
						Value: "1d",
					},
				},
				Action: exportCSV,
			},
			{
				Name:     "summary",
				HelpName: "summary",
				Usage:    "Print summary statistics of every panel",
				Flags:    []cli.Flag{settingsFlag, databaseFlag, driverFlag, logLevelFlag, startFlag, endFlag, daysFlag},
				Action:   summary,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setup(c *cli.Context, options ...vitalchart.Option) (*vitalchart.Dashboard, error) {
	level, err := log.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, err
	}

	settings, err := vitalchart.LoadSettings(c.String("settings"))
	if err != nil {
		return nil, err
	}

	var store storage.Storage
	switch c.String("driver") {
	case "bunt":
		store, err = storage.FromFile(c.String("db"))
	case "sqlite":
		store, err = storage.FromSQLite(c.String("db"))
	default:
		err = fmt.Errorf("unknown storage driver %q", c.String("driver"))
	}
	if err != nil {
		return nil, err
	}

	options = append(options, vitalchart.WithStorage(store), vitalchart.WithLogLevel(level))
	return vitalchart.NewDashboard(settings, options...)
}

func window(c *cli.Context) model.LoadWindow {
	end := time.Now().UTC()
	if t := c.Timestamp("end"); t != nil {
		end = t.UTC()
	}
	if t := c.Timestamp("start"); t != nil {
		return model.LoadWindow{Start: t.UTC(), End: end}
	}
	return model.LoadWindow{Start: end.AddDate(0, 0, -c.Int("days")), End: end}
}

func serve(c *cli.Context) error {
	var options []vitalchart.Option
	if period := c.Int("trend"); period > 0 {
		options = append(options, vitalchart.WithChartOptions(plot.WithIndicators(indicator.Defaults(period))))
	}
	options = append(options, vitalchart.WithChartOptions(plot.WithRangeCallback(func(change plot.RangeChange) {
		log.WithField("panel", change.Panel).Infof("range changed: %s ~ %s", change.Start, change.End)
	})))

	dashboard, err := setup(c, options...)
	if err != nil {
		return err
	}
	defer dashboard.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	preset := c.String("preset")
	if preset == "" {
		preset = dashboard.Chart().BroadestPreset().ID
	}
	if err := dashboard.Chart().LoadPreset(ctx, preset); err != nil {
		// 加载失败不影响服务启动，界面可以通过 /retry 重试
		log.WithError(err).Warn("initial load failed")
	}

	return dashboard.Serve(ctx, fmt.Sprintf(":%d", c.Int("port")))
}

func importCSV(c *cli.Context) error {
	dashboard, err := setup(c)
	if err != nil {
		return err
	}
	defer dashboard.Close()

	feeds := make([]source.PanelFeed, 0)
	for _, definition := range c.StringSlice("panel") {
		panelID, file, found := strings.Cut(definition, "=")
		if !found {
			return fmt.Errorf("invalid panel %q, expected panel=file.csv", definition)
		}
		settings, _ := lo.Find(dashboard.Settings().Panels, func(panel model.PanelSettings) bool {
			return panel.ID == panelID
		})
		feeds = append(feeds, source.PanelFeed{Panel: panelID, File: file, Series: settings.Series})
	}

	return dashboard.Import(feeds, c.String("annotations"))
}

func exportCSV(c *cli.Context) error {
	dashboard, err := setup(c)
	if err != nil {
		return err
	}
	defer dashboard.Close()

	panel, ok := lo.Find(dashboard.Settings().Panels, func(panel model.PanelSettings) bool {
		return panel.ID == c.String("panel")
	})
	if !ok {
		return fmt.Errorf("%w: %s", plot.ErrUnknownPanel, c.String("panel"))
	}

	w := window(c)
	return export.NewExporter(dashboard.Storage()).Export(c.Context, panel, c.String("output"),
		export.WithInterval(w.Start, w.End),
		export.WithBatch(c.String("batch")),
	)
}

func summary(c *cli.Context) error {
	dashboard, err := setup(c)
	if err != nil {
		return err
	}
	defer dashboard.Close()

	return dashboard.Summary(c.Context, os.Stdout, window(c))
}
