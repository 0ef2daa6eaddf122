package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/brogergvhs/cuudl/internal/config"
	"github.com/brogergvhs/cuudl/internal/drm"
	"github.com/brogergvhs/cuudl/internal/providers/cuutruyen"
	"github.com/brogergvhs/cuudl/internal/ui"
	"github.com/brogergvhs/cuudl/internal/util"

	"github.com/spf13/cobra"
)

var (
	flagIgnoreConfig bool
	flagDebug        bool
	flagDomain       string
)

var rootCmd = &cobra.Command{
	Use:          "cuudl",
	Short:        "CuuTruyen downloader that descrambles pages into CBZ files",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
	rootCmd.PersistentFlags().StringVar(&flagDomain, "domain", "", "CuuTruyen domain or base URL (e.g. cuutruyen.net)")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// session bundles what every network command needs.
type session struct {
	cfg    *config.Config
	log    *ui.Logger
	client *http.Client
	source *cuutruyen.Source
	// transport is set when the cipher runs inside the HTTP client.
	transport bool
}

func newSession(opts config.Options) (*session, string, error) {
	opts.IgnoreConfig = flagIgnoreConfig
	opts.Debug = opts.Debug || flagDebug
	if opts.Domain == "" {
		opts.Domain = flagDomain
	}

	cfg, used, err := config.LoadMerged(opts)
	if err != nil {
		return nil, "", err
	}

	log := ui.NewLogger(cfg.Debug)
	s := &session{
		cfg:       cfg,
		log:       log,
		transport: cfg.Integration == config.IntegrationTransport,
	}

	copts := util.HTTPClientOptions{
		Timeout:          60 * time.Second,
		UserAgent:        util.PickUserAgent(cfg.UserAgent),
		Referer:          cuutruyen.BaseURL(cfg.Domain) + "/",
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		BypassCloudflare: cfg.BypassCloudflare,
		DebugLogger:      log,
	}
	if s.transport {
		copts.Wrap = func(rt http.RoundTripper) http.RoundTripper {
			return &drm.Transport{
				Base:  rt,
				Hosts: cfg.Hosts(),
				Key:   []byte(cfg.CipherKey),
				Log:   log,
			}
		}
	}

	client, err := util.NewHTTPClient(copts)
	if err != nil {
		return nil, "", err
	}

	s.client = client
	s.source = cuutruyen.New(client, cfg.Domain, log)
	return s, used, nil
}

func (s *session) pipeline() *drm.Pipeline {
	return drm.NewPipeline(drm.Options{
		Key:            s.cfg.CipherKey,
		Marker:         s.cfg.Marker,
		Deciphered:     s.transport,
		StrictGeometry: s.cfg.StrictGeometry,
		JPEGQuality:    s.cfg.JPEGQuality,
	})
}
