package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"podkeep/internal/app"
	"podkeep/internal/config"
	"podkeep/internal/enclosures"
	"podkeep/internal/logging"
	"podkeep/internal/metadata"
	"podkeep/internal/repl"
	"podkeep/internal/theme"
)

func main() {
	importOPML := flag.String("import-opml", "", "star subscriptions from an OPML file and exit")
	exportOPML := flag.String("export-opml", "", "export starred subscriptions to an OPML file and exit")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("failed to resolve home directory: %v", err)
	}

	baseDir := filepath.Join(home, ".podkeep")
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		log.Fatalf("failed to create application directory: %v", err)
	}

	logging.Configure(baseDir)

	configPath := filepath.Join(baseDir, "config.yaml")
	cfg, err := config.Ensure(ctx, configPath, baseDir)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	httpClient := newHTTPClient(cfg)

	store := metadata.New(
		filepath.Join(baseDir, "local.json"),
		cfg.RoamingPath,
		cfg.EnclosuresDir,
		metadata.Options{
			Client:     httpClient,
			PurgeAfter: time.Duration(cfg.PurgeAfterDays) * 24 * time.Hour,
		},
	)
	if err := store.Load(metadata.SectionBoth); err != nil {
		log.Fatalf("failed to load metadata: %v", err)
	}

	downloads := enclosures.New(store, httpClient, cfg.EnclosuresDir, enclosures.FFProbe{Path: cfg.FFProbePath})

	application := app.NewWithDependencies(cfg, configPath, app.Dependencies{
		HTTPClient: httpClient,
		Store:      store,
		Enclosures: downloads,
	})

	if *importOPML != "" && *exportOPML != "" {
		fmt.Fprintln(os.Stderr, "error: --import-opml and --export-opml cannot be used together")
		os.Exit(1)
	}

	if *exportOPML != "" {
		result, err := application.ExportOPML(ctx, *exportOPML)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error exporting OPML: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stdout, result.Message)
		return
	}

	if *importOPML != "" {
		result, err := application.ImportOPML(ctx, *importOPML)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error importing OPML: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stdout, result.Message)
		return
	}

	// Watch the roaming file so listening state written by another device
	// shows up without a restart.
	externalChanges := make(chan struct{}, 1)
	go func() {
		err := store.Watch(ctx, func() {
			select {
			case externalChanges <- struct{}{}:
			default:
			}
		})
		if err != nil && ctx.Err() == nil {
			log.Printf("roaming watcher stopped: %v", err)
		}
	}()

	if err := repl.Run(ctx, application, theme.ForName(cfg.ColorTheme), externalChanges); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// newHTTPClient builds the client shared by feed refreshes, enclosure
// downloads and directory searches.
func newHTTPClient(cfg config.Config) *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.TLSVerify},
	}
	if proxyURL := strings.TrimSpace(cfg.Proxy); proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		} else {
			log.Printf("ignoring invalid proxy URL %q: %v", proxyURL, err)
		}
	}
	return &http.Client{
		Timeout: 60 * time.Second,
		Transport: &userAgentTransport{
			agent: cfg.UserAgent,
			inner: transport,
		},
	}
}

type userAgentTransport struct {
	agent string
	inner http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.agent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.agent)
	}
	return t.inner.RoundTrip(req)
}
