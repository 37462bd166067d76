package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pders01/qrsum/internal/config"
	"github.com/pders01/qrsum/internal/datefmt"
	"github.com/pders01/qrsum/internal/debuglog"
	"github.com/pders01/qrsum/internal/feed"
	"github.com/pders01/qrsum/internal/query"
	"github.com/pders01/qrsum/internal/search"
	"github.com/pders01/qrsum/internal/storage"
	"github.com/pders01/qrsum/internal/summary"
	"github.com/pders01/qrsum/internal/tui"
)

// Version is the version of the application, set at build time
var Version = "dev"

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	dbPath     string
	logLevel   string
	// stderr receives logs when log.file is "-".
	stderr io.Writer
}

// env is everything a command needs once config has been loaded.
type env struct {
	cfg       *config.Config
	store     *storage.Store
	searcher  search.Searcher
	manager   *feed.Manager
	resolver  *query.Resolver
	formatter *summary.Formatter
}

func (g *globalFlags) open() (*env, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if g.dbPath != "" {
		cfg.Database.Path = g.dbPath
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	level := debuglog.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.File == config.LogToStderr {
		w := g.stderr
		if w == nil {
			w = os.Stderr
		}
		debuglog.SetupWriter(level, w)
	} else if err := debuglog.Setup(level, cfg.Log.File); err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	formatter, err := cfg.NewFormatter(summary.WithDateRenderer(datefmt.Format))
	if err != nil {
		// Unknown keys in [summary] are not fatal.
		debuglog.Warnf("config: %v", err)
	}

	store, err := storage.NewStoreWithTimeout(cfg.Database.Path, cfg.Database.Timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "opening database %s", cfg.Database.Path)
	}

	searcher := search.Open(store, cfg.Database.SearchIndex)
	manager := feed.NewManager(store, cfg)
	manager.AddListener(searcher)

	return &env{
		cfg:      cfg,
		store:    store,
		searcher: searcher,
		manager:  manager,
		resolver: query.NewResolver(store, searcher,
			query.WithPageSize(cfg.Query.PageSize),
			query.WithLocation(loc),
		),
		formatter: formatter,
	}, nil
}

func (e *env) Close() {
	if c, ok := e.searcher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			debuglog.Warnf("closing search index: %v", err)
		}
	}
	if err := e.store.Close(); err != nil {
		debuglog.Warnf("closing database: %v", err)
	}
	debuglog.Close()
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "qrsum [query]",
		Short: "Browse feed archives with query results summaries",
		Long: "qrsum follows feeds and answers archive queries over their posts " +
			"(search, date, category, tag and author) with a one line summary such as " +
			"\"Results 1 - 10 of about 42 for cats.\"\n\n" +
			"Without a subcommand it opens the browser, optionally starting at a query " +
			"string like \"s=cats\" or \"m=202405\".",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			g.stderr = cmd.ErrOrStderr()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var initial query.Request
			if len(args) == 1 {
				req, err := query.ParseQueryString(args[0])
				if err != nil {
					return err
				}
				initial = req
			}

			e, err := g.open()
			if err != nil {
				return err
			}
			defer e.Close()

			app := tui.NewApp(e.cfg, tui.Services{
				Store:     e.store,
				Resolver:  e.resolver,
				Formatter: e.formatter,
				Manager:   e.manager,
			}, initial)
			_, err = tea.NewProgram(app, tea.WithAltScreen()).Run()
			return err
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "path to configuration file")
	pf.StringVar(&g.dbPath, "db", "", "path to database file (overrides config)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error or off")

	root.AddCommand(
		newSummaryCmd(g),
		newAddCmd(g),
		newRemoveCmd(g),
		newRefreshCmd(g),
		newListCmd(g),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
