package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/cxxls/cxxls/internal/completion"
	"github.com/cxxls/cxxls/internal/config"
	"github.com/cxxls/cxxls/internal/debug"
	"github.com/cxxls/cxxls/internal/highlight"
	"github.com/cxxls/cxxls/internal/lspserver"
	"github.com/cxxls/cxxls/internal/parser"
	"github.com/cxxls/cxxls/internal/pipeline"
	"github.com/cxxls/cxxls/internal/project"
	"github.com/cxxls/cxxls/internal/querydb"
	"github.com/cxxls/cxxls/internal/uri"
	"github.com/cxxls/cxxls/internal/version"
	"github.com/cxxls/cxxls/internal/workingfiles"
)

func main() {
	app := &cli.App{
		Name:                   "cxxls",
		Usage:                  "C/C++/Objective-C language server with an incremental cross-file symbol database",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (defaults to the working directory)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Index only files matching these glob patterns (e.g. --include 'src/**/*.cc')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Skip files matching these glob patterns (appended to config)",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Indexer worker count (overrides config; 0 = CPU count)",
			},
			&cli.BoolFlag{
				Name:  "log-file",
				Usage: "Write debug output to a timestamped log file",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the LSP server over stdio",
				Action: serveCommand,
			},
			{
				Name:  "index",
				Usage: "Index the workspace once and print database statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "watch",
						Aliases: []string{"w"},
						Usage:   "Keep running and re-index files as they change on disk",
					},
				},
				Action: indexCommand,
			},
			{
				Name:  "version",
				Usage: "Print version and build information",
				Action: func(c *cli.Context) error {
					fmt.Println(version.FullInfo())
					fmt.Printf("build id: %s\n", version.BuildID())
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "cxxls: %v\n", err)
		os.Exit(1)
	}
}

// components is the root-owned context for the process: every long-lived
// cache and store, built once and passed by capability to whichever
// command needs it.
type components struct {
	cfg        *config.Config
	db         *querydb.DB
	pl         *pipeline.Pipeline
	completion *completion.Manager
	scanner    *project.Scanner
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = wd
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, err
	}

	if include := c.StringSlice("include"); len(include) > 0 {
		cfg.Include = include
	}
	if exclude := c.StringSlice("exclude"); len(exclude) > 0 {
		cfg.Exclude = append(cfg.Exclude, exclude...)
	}
	if workers := c.Int("workers"); workers > 0 {
		cfg.IndexerWorkers = workers
	}
	return cfg, nil
}

func buildComponents(c *cli.Context) (*components, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	if c.Bool("log-file") {
		if path, err := debug.InitLogFile(); err == nil {
			debug.Log("MAIN", "logging to %s", path)
		}
	}

	cache, err := pipeline.NewDiskCache(cfg.CacheDir, pipeline.ParseCacheFormat(cfg.CacheFormat))
	if err != nil {
		return nil, err
	}

	p := parser.New()
	db := querydb.New()
	mgr := completion.New(p, db)
	mgr.SetFilterAndSort(cfg.Completion.FilterAndSort)
	return &components{
		cfg:        cfg,
		db:         db,
		pl:         pipeline.New(db, p, cache, cfg.IndexerWorkers),
		completion: mgr,
		scanner:    project.NewScanner(cfg),
	}, nil
}

// enqueueWorkspace scans the project root and submits every source file as
// a non-priority index request; interactive editor traffic always jumps
// ahead of it in the queue.
func enqueueWorkspace(comp *components) ([]string, error) {
	files, err := comp.scanner.Scan()
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		comp.pl.EnqueueIndexRequest(pipeline.Request{Path: path}, false)
	}
	return files, nil
}

func serveCommand(c *cli.Context) error {
	// Nothing but framed JSON-RPC may reach stdout once the server is up.
	debug.SetQuietMode(!c.Bool("log-file"))

	comp, err := buildComponents(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	pipelineDone := make(chan error, 1)
	go func() {
		pipelineDone <- comp.pl.Run(ctx)
	}()

	if _, err := enqueueWorkspace(comp); err != nil {
		debug.Log("MAIN", "workspace scan: %v", err)
	}

	srv := lspserver.New(lspserver.Deps{
		Config:     comp.cfg,
		DB:         comp.db,
		Pipeline:   comp.pl,
		Completion: comp.completion,
		Highlight:  highlight.New(),
		Working:    workingfiles.New(),
		URIs:       uri.New(),
	})
	runErr := srv.Run(ctx, os.Stdin, os.Stdout)

	// Teardown order matters: stop feeding the queues, drain the worker
	// pool, then let QueryDB go out of scope.
	cancel()
	<-pipelineDone
	debug.CloseLogFile()
	return runErr
}

func indexCommand(c *cli.Context) error {
	comp, err := buildComponents(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	pipelineDone := make(chan error, 1)
	go func() {
		pipelineDone <- comp.pl.Run(ctx)
	}()

	start := time.Now()
	files, err := enqueueWorkspace(comp)
	if err != nil {
		cancel()
		<-pipelineDone
		return err
	}

	waitImported(ctx, comp.pl.ImportManager(), files)
	printStats(comp, len(files), time.Since(start))

	if c.Bool("watch") {
		watcher, err := project.NewWatcher(comp.scanner, 100*time.Millisecond, func(ev project.Event) {
			req := pipeline.Request{Path: ev.Path, Deleted: ev.Kind == project.EventRemoved}
			comp.pl.EnqueueIndexRequest(req, false)
		})
		if err != nil {
			cancel()
			<-pipelineDone
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			cancel()
			<-pipelineDone
			return err
		}
		fmt.Println("watching for changes; press Ctrl-C to stop")
		<-ctx.Done()
		watcher.Stop()
	}

	cancel()
	<-pipelineDone
	debug.CloseLogFile()
	return nil
}

// waitImported polls the ImportManager until every enqueued path has
// reached Imported, or ctx is canceled. Paths the pipeline dropped (parse
// failure, unreadable file) stay in a Processing state; the deadline keeps
// one bad file from hanging the command forever.
func waitImported(ctx context.Context, mgr *pipeline.ImportManager, paths []string) {
	deadline := time.After(5 * time.Minute)
	for {
		remaining := 0
		for _, p := range paths {
			if mgr.Status(p) != pipeline.Imported {
				remaining++
			}
		}
		if remaining == 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			debug.Log("MAIN", "%d files never reached Imported", remaining)
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func printStats(comp *components, fileCount int, elapsed time.Duration) {
	symbols := comp.db.AllIndexedSymbols()
	fmt.Printf("indexed %d files in %v\n", fileCount, elapsed.Round(time.Millisecond))
	fmt.Printf("  symbols: %d\n", len(symbols))
	fmt.Printf("  cache:   %s (%s)\n", comp.cfg.CacheDir, comp.cfg.CacheFormat)
}
