package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/brogergvhs/cuudl/internal/drm"
	"github.com/brogergvhs/cuudl/internal/providers/cuutruyen"
)

const (
	IntegrationPage      = "page"
	IntegrationTransport = "transport"
)

type Config struct {
	Output         string `yaml:"output"`
	ImageWorkers   int    `yaml:"image_workers"`
	ChapterWorkers int    `yaml:"chapter_workers"`
	KeepFolders    bool   `yaml:"keep_folders"`
	Debug          bool   `yaml:"debug"`

	Domain  string   `yaml:"domain"`
	Mirrors []string `yaml:"mirrors"`

	CipherKey      string `yaml:"cipher_key"`
	Marker         string `yaml:"marker"`
	Integration    string `yaml:"integration"`
	StrictGeometry bool   `yaml:"strict_geometry"`
	JPEGQuality    int    `yaml:"jpeg_quality"`

	DefaultManga        string `yaml:"default_manga"`
	DefaultRange        string `yaml:"default_range"`
	DefaultExcludeRange string `yaml:"default_exclude_range"`
	DefaultList         string `yaml:"default_list"`
	DefaultExcludeList  string `yaml:"default_exclude_list"`

	Cookie           string `yaml:"cookie"`
	CookieFile       string `yaml:"cookie_file"`
	UserAgent        string `yaml:"user_agent"`
	BypassCloudflare bool   `yaml:"bypass_cloudflare"`
}

// Options carries CLI overrides; zero values leave the profile alone.
type Options struct {
	IgnoreConfig        bool
	Debug               bool
	Output              string
	ImageWorkers        int
	ChapterWorkers      int
	KeepFolders         bool
	Domain              string
	Integration         string
	StrictGeometry      bool
	DefaultManga        string
	DefaultRange        string
	DefaultExcludeRange string
	DefaultList         string
	DefaultExcludeList  string
	Cookie              string
	CookieFile          string
	UserAgent           string
	BypassCloudflare    bool
}

func DefaultConfig() *Config {
	return &Config{
		Output:         ".",
		ImageWorkers:   5,
		ChapterWorkers: 2,
		Domain:         cuutruyen.DefaultDomain,
		Mirrors:        append([]string(nil), cuutruyen.Mirrors...),
		CipherKey:      drm.DefaultKey,
		Marker:         drm.DefaultMarker,
		Integration:    IntegrationPage,
		JPEGQuality:    90,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged loads the active profile (or defaults), applies opts and
// validates the result. The second value describes where it came from.
func LoadMerged(opts Options) (*Config, string, error) {
	var (
		cfg  *Config
		used string
	)

	activePath, err := ActiveConfigPath()
	switch {
	case opts.IgnoreConfig:
		cfg, used = DefaultConfig(), "(ignored config)"
	case err == ErrNoConfig || activePath == "":
		cfg, used = DefaultConfig(), "(default config in memory)\nRun `cuudl config init` to create an actual config\n"
	case err != nil:
		return nil, "", err
	default:
		cfg, err = loadYAML(activePath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
		}
		used = activePath
	}

	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, used, nil
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.ImageWorkers != 0 {
		c.ImageWorkers = o.ImageWorkers
	}
	if o.ChapterWorkers != 0 {
		c.ChapterWorkers = o.ChapterWorkers
	}
	if o.KeepFolders {
		c.KeepFolders = true
	}
	if o.Debug {
		c.Debug = true
	}
	if o.Domain != "" {
		c.Domain = o.Domain
	}
	if o.Integration != "" {
		c.Integration = o.Integration
	}
	if o.StrictGeometry {
		c.StrictGeometry = true
	}
	if o.DefaultManga != "" {
		c.DefaultManga = o.DefaultManga
	}
	if o.DefaultRange != "" {
		c.DefaultRange = o.DefaultRange
	}
	if o.DefaultExcludeRange != "" {
		c.DefaultExcludeRange = o.DefaultExcludeRange
	}
	if o.DefaultList != "" {
		c.DefaultList = o.DefaultList
	}
	if o.DefaultExcludeList != "" {
		c.DefaultExcludeList = o.DefaultExcludeList
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.BypassCloudflare {
		c.BypassCloudflare = true
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.ImageWorkers <= 0 {
		c.ImageWorkers = 5
	}
	if c.ChapterWorkers <= 0 {
		c.ChapterWorkers = 2
	}
	if c.Domain == "" {
		c.Domain = cuutruyen.DefaultDomain
	}
	if c.CipherKey == "" {
		c.CipherKey = drm.DefaultKey
	}
	if c.Marker == "" {
		c.Marker = drm.DefaultMarker
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = 90
	}
	c.Integration = strings.ToLower(strings.TrimSpace(c.Integration))
	if c.Integration == "" {
		c.Integration = IntegrationPage
	}
}

func (c *Config) Validate() error {
	switch c.Integration {
	case IntegrationPage, IntegrationTransport:
	default:
		return fmt.Errorf("integration must be %q or %q, got %q", IntegrationPage, IntegrationTransport, c.Integration)
	}
	return nil
}

// Hosts is the source's domain set.
func (c *Config) Hosts() []string {
	hosts := []string{c.Domain}
	for _, m := range c.Mirrors {
		if m = strings.TrimSpace(m); m != "" && m != c.Domain {
			hosts = append(hosts, m)
		}
	}
	return hosts
}

func (c *Config) Print() {
	if c.Output != "" {
		fmt.Printf(" -output: %s\n", c.Output)
	}
	fmt.Printf(" -image_workers: %d\n", c.ImageWorkers)
	fmt.Printf(" -chapter_workers: %d\n", c.ChapterWorkers)
	if c.KeepFolders {
		fmt.Printf(" -keep_folders: %t\n", c.KeepFolders)
	}
	if c.Debug {
		fmt.Printf(" -debug: %t\n", c.Debug)
	}
	fmt.Printf(" -domain: %s\n", c.Domain)
	if len(c.Mirrors) > 0 {
		fmt.Printf(" -mirrors: %s\n", strings.Join(c.Mirrors, ", "))
	}
	fmt.Printf(" -integration: %s\n", c.Integration)
	fmt.Printf(" -marker: %s\n", c.Marker)
	if c.StrictGeometry {
		fmt.Printf(" -strict_geometry: %t\n", c.StrictGeometry)
	}
	fmt.Printf(" -jpeg_quality: %d\n", c.JPEGQuality)
	if c.DefaultManga != "" {
		fmt.Printf(" -manga: %s\n", c.DefaultManga)
	}
	if c.DefaultRange != "" {
		fmt.Printf(" -range: %s\n", c.DefaultRange)
	}
	if c.DefaultExcludeRange != "" {
		fmt.Printf(" -exclude_range: %s\n", c.DefaultExcludeRange)
	}
	if c.DefaultList != "" {
		fmt.Printf(" -list: %s\n", c.DefaultList)
	}
	if c.DefaultExcludeList != "" {
		fmt.Printf(" -exclude_list: %s\n", c.DefaultExcludeList)
	}
	if c.CookieFile != "" {
		fmt.Printf(" -cookie_file: %s\n", c.CookieFile)
	}
	if c.BypassCloudflare {
		fmt.Printf(" -bypass_cloudflare: %t\n", c.BypassCloudflare)
	}
}
