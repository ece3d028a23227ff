package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/you/chatscribe/internal/config"
	httpadmin "github.com/you/chatscribe/internal/http"
	"github.com/you/chatscribe/internal/httpapi"
	"github.com/you/chatscribe/internal/version"
	"github.com/you/chatscribe/internal/ytapi"
	"github.com/you/chatscribe/internal/ytchat"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("chatscribe: loading .env: %v", err)
	}

	var (
		versionFlag     bool
		httpAddr        string
		httpCorsOrigins string
		httpRateRPS     int
		httpRateBurst   int
		httpMetrics     bool
		httpAccessLog   bool
		ytAPIKey        string
		ytAPIKeyFile    string
		ytSource        string
	)

	flag.BoolVar(&versionFlag, "version", false, "Print build version and exit")
	flag.StringVar(&httpAddr, "http-addr", "", "HTTP API address (e.g., :8080)")
	flag.StringVar(&httpCorsOrigins, "http-cors-origins", "", "Comma-separated list of allowed CORS origins")
	flag.IntVar(&httpRateRPS, "http-rate-rps", 20, "Maximum HTTP requests per second per client")
	flag.IntVar(&httpRateBurst, "http-rate-burst", 40, "Burst size for HTTP rate limiter")
	flag.BoolVar(&httpMetrics, "http-metrics", true, "Expose Prometheus metrics endpoint")
	flag.BoolVar(&httpAccessLog, "http-access-log", true, "Log HTTP access records")
	flag.StringVar(&ytAPIKey, "yt-api-key", "", "YouTube Data API key")
	flag.StringVar(&ytAPIKeyFile, "yt-api-key-file", "", "Path to file containing the YouTube Data API key")
	flag.StringVar(&ytSource, "yt-source", "", "Transcript source: auto, api, or innertube")
	flag.Parse()

	if versionFlag {
		fmt.Printf(
			"chatscribe version: %s (commit %s, built %s)\n",
			version.Version,
			version.Commit,
			version.BuildTime,
		)
		os.Exit(0)
	}

	overrides := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		overrides[f.Name] = true
	})

	cfg := config.Load()

	if overrides["http-addr"] {
		cfg.HTTP.Addr = strings.TrimSpace(httpAddr)
	}
	if overrides["http-cors-origins"] {
		var origins []string
		for _, origin := range strings.Split(httpCorsOrigins, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				origins = append(origins, origin)
			}
		}
		cfg.HTTP.CORSOrigins = origins
	}
	if overrides["http-rate-rps"] {
		cfg.HTTP.RateRPS = httpRateRPS
	}
	if overrides["http-rate-burst"] {
		cfg.HTTP.RateBurst = httpRateBurst
	}
	if overrides["http-metrics"] {
		cfg.HTTP.Metrics = httpMetrics
	}
	if overrides["http-access-log"] {
		cfg.HTTP.AccessLog = httpAccessLog
	}
	if overrides["yt-api-key"] {
		cfg.YouTube.APIKey = strings.TrimSpace(ytAPIKey)
	}
	if overrides["yt-api-key-file"] {
		cfg.YouTube.APIKeyFile = strings.TrimSpace(ytAPIKeyFile)
	}
	if overrides["yt-source"] {
		switch s := strings.ToLower(strings.TrimSpace(ytSource)); s {
		case "auto", "api", "innertube":
			cfg.YouTube.Source = s
		default:
			log.Fatalf("chatscribe: invalid -yt-source %q (want auto, api, or innertube)", ytSource)
		}
	}

	if cfg.YouTube.LegacyAPIKeyEnv != "" {
		log.Printf("chatscribe: using api key from legacy env %s", cfg.YouTube.LegacyAPIKeyEnv)
	}
	log.Printf("%s", cfg.SummaryJSON())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("chatscribe: received %s, shutting down", sig)
		cancel()
	}()

	var (
		fetcher httpapi.Fetcher
		keyFile *ytapi.KeyFile
	)
	if cfg.UseDataAPI() {
		client := ytapi.New(cfg.YouTube.APIKey)
		if cfg.YouTube.APIKeyFile != "" {
			keyFile = ytapi.NewKeyFile(cfg.YouTube.APIKeyFile, client)
			if _, err := keyFile.ReloadKey(); err != nil {
				if cfg.YouTube.APIKey == "" {
					log.Fatalf("chatscribe: load api key: %v", err)
				}
				log.Printf("chatscribe: load api key file: %v (keeping configured key)", err)
			}
			if err := keyFile.Watch(); err != nil {
				slog.Error("chatscribe: watch api key file", "err", err)
			}
		}
		fetcher = client
		log.Printf("chatscribe: transcript source: youtube data api")
	} else {
		fetcher = ytchat.NewClient(nil)
		log.Printf("chatscribe: transcript source: innertube")
	}

	api := httpapi.New(fetcher, httpapi.Options{
		Addr:          cfg.HTTP.Addr,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		RateRPS:       cfg.HTTP.RateRPS,
		RateBurst:     cfg.HTTP.RateBurst,
		EnableMetrics: cfg.HTTP.Metrics,
		AccessLog:     cfg.HTTP.AccessLog,
		Build:         buildInfo(),
	})
	if keyFile != nil {
		admin := httpadmin.New(keyFile)
		admin.Register(api.Mux())
	}

	go func() {
		if err := api.Start(); err != nil {
			log.Fatalf("chatscribe: http api: %v", err)
		}
	}()
	log.Printf("chatscribe: http api ready on %s", cfg.HTTP.Addr)

	<-ctx.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	if err := api.Shutdown(shutdownCtx); err != nil {
		log.Printf("chatscribe: http api shutdown: %v", err)
	}
	cancelShutdown()

	log.Printf("chatscribe: shutdown complete")
}

func buildInfo() httpapi.BuildInfo {
	build := httpapi.BuildInfo{Version: version.Version, Revision: version.Commit}
	if version.BuildTime != "" && version.BuildTime != "unknown" {
		if t, err := time.Parse(time.RFC3339, version.BuildTime); err == nil {
			build.BuiltAt = t
		}
	}
	return build
}
