package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/secstrace/secstrace/internal/config"
	"github.com/secstrace/secstrace/internal/httpapi"
	"github.com/secstrace/secstrace/internal/logging"
	"github.com/secstrace/secstrace/internal/query"
	"github.com/secstrace/secstrace/internal/session"
	"github.com/secstrace/secstrace/internal/store"
	"github.com/secstrace/secstrace/version"
)

const defaultConfigLoc = `/opt/secstrace/etc/secstraced.conf`

var (
	confLoc = flag.String("config-file", defaultConfigLoc, "Location for configuration file")
	ver     = flag.Bool("version", false, "Print the version information and exit")
	stderr  = flag.Bool("stderr", false, "Log to stderr instead of the configured log file")
)

func main() {
	flag.Parse()
	if *ver {
		version.PrintVersion(os.Stdout)
		os.Exit(0)
	}

	lg := logging.New(os.Stderr)

	// Exit codes: 1 bind failure, 2 unreadable/unwritable data root,
	// 3 invalid config file.
	cfg, err := config.Load(*confLoc)
	if err != nil {
		lg.FatalfCode(3, "failed to load config file %q: %v", *confLoc, err)
	}

	if cfg.LogFile != "" && !*stderr {
		fileLg, err := logging.NewFile(cfg.LogFile)
		if err != nil {
			lg.FatalfCode(3, "failed to open log file %q: %v", cfg.LogFile, err)
		}
		lg = fileLg
	}
	if err := lg.SetLevelString(cfg.LogLevel); err != nil {
		lg.FatalfCode(3, "invalid Log-Level %q: %v", cfg.LogLevel, err)
	}

	if fi, err := os.Stat(cfg.DataDirectory); err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(cfg.DataDirectory, 0755); mkErr != nil {
				lg.FatalfCode(2, "data directory %q does not exist and could not be created: %v", cfg.DataDirectory, mkErr)
			}
		} else {
			lg.FatalfCode(2, "cannot stat data directory %q: %v", cfg.DataDirectory, err)
		}
	} else if !fi.IsDir() {
		lg.FatalfCode(2, "data directory %q is not a directory", cfg.DataDirectory)
	}

	st := store.New(cfg.DataDirectory)
	sessions := session.NewManager(st, lg)
	sessions.StartSweeper(cfg.SweepPeriod, cfg.SessionTTL)
	defer sessions.Stop()

	engine := query.NewEngine(st)

	srv := &httpapi.Server{
		Sessions:      sessions,
		Engine:        engine,
		Log:           lg,
		MaxUploadSize: cfg.MaxUploadSize,
		CORSOrigins:   cfg.CORSAllowedOrigins,
	}
	router := srv.NewRouter()
	httpSrv := httpapi.NewHTTPServer(cfg.Bind, router)

	// The serve loop and the signal-triggered shutdown run as the two
	// halves of an errgroup: Wait returns the first non-nil error from
	// either side. On a signal the shutdown half stops the server, which
	// ends the serve loop; if the serve loop fails instead (e.g. bind
	// failure), the group's context is canceled, which unblocks the
	// shutdown-wait goroutine below.
	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		lg.Infof("listening on %s, data directory %s", cfg.Bind, cfg.DataDirectory)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case <-sigCh:
			lg.Infof("shutting down")
		case <-gctx.Done():
			return nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(ctx)
	})

	if err := g.Wait(); err != nil {
		lg.Errorf("%v", err)
		os.Exit(1)
	}
}
