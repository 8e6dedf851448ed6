// Command render fetches both datasets once and writes the choropleth page to
// a file or stdout, without starting the HTTP service.
//
// Usage:
//
//	go run ./cmd/render -o out/choropleth.html -scheme blues -colors 7
//
// Fixtures written by genmock can be rendered offline with -data-dir, which
// serves counties.json and for_user_education.json from a local directory.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/couchcryptid/education-choropleth/internal/adapter/fetch"
	"github.com/couchcryptid/education-choropleth/internal/config"
	"github.com/couchcryptid/education-choropleth/internal/domain"
	"github.com/couchcryptid/education-choropleth/internal/observability"
	"github.com/couchcryptid/education-choropleth/internal/pipeline"
	"github.com/couchcryptid/education-choropleth/internal/render"
)

const (
	fixtureTopology  = "counties.json"
	fixtureEducation = "for_user_education.json"
)

type options struct {
	topologyURL  string
	educationURL string
	dataDir      string
	output       string
	scheme       string
	colors       int
	timeout      time.Duration
	logLevel     string
}

func main() {
	var opts options
	flag.StringVar(&opts.topologyURL, "topology-url", config.DefaultTopologyURL, "county topology URL")
	flag.StringVar(&opts.educationURL, "education-url", config.DefaultEducationURL, "education dataset URL")
	flag.StringVar(&opts.dataDir, "data-dir", "", "serve both datasets from this directory instead of the URLs")
	flag.StringVar(&opts.output, "o", "", "output file (default stdout)")
	flag.StringVar(&opts.scheme, "scheme", domain.DefaultScheme, "palette scheme (blues, greens)")
	flag.IntVar(&opts.colors, "colors", domain.DefaultPaletteSize, "palette size (3-9)")
	flag.DurationVar(&opts.timeout, "timeout", 10*time.Second, "per-dataset fetch timeout")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "render: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	pal, err := domain.PaletteFor(opts.scheme, opts.colors)
	if err != nil {
		return err
	}

	// Logs go to stderr so the page can be piped from stdout.
	logger := observability.NewCLILogger(opts.logLevel)

	if opts.dataDir != "" {
		base, shutdown, err := serveDir(opts.dataDir)
		if err != nil {
			return err
		}
		defer shutdown()
		opts.topologyURL = base + "/" + fixtureTopology
		opts.educationURL = base + "/" + fixtureEducation
	}

	metrics := observability.NewMetricsForTesting()
	client := fetch.NewClient(opts.topologyURL, opts.educationURL, opts.timeout, metrics, logger)
	p := pipeline.New(client, render.New(), nil, render.NewPageCache(1), pal, logger, metrics)

	var page bytes.Buffer
	if err := p.Run(ctx, &page); err != nil {
		return err
	}

	if opts.output == "" {
		_, err := page.WriteTo(os.Stdout)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, page.Bytes(), 0o644); err != nil {
		return err
	}
	logger.Info("page written", "path", opts.output, "bytes", page.Len(), "palette", pal.Key())
	return nil
}

// serveDir serves dir on a loopback listener and returns its base URL.
func serveDir(dir string) (string, func(), error) {
	if _, err := os.Stat(dir); err != nil {
		return "", nil, err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, fmt.Errorf("listen: %w", err)
	}
	srv := &http.Server{
		Handler:           http.FileServer(http.Dir(dir)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "render: fixture server: %v\n", err)
		}
	}()
	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return "http://" + ln.Addr().String(), shutdown, nil
}
