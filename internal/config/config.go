package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"gopkg.in/yaml.v3"
)

// Config drives the CLI and the HTTP adapter. Flags override file values.
type Config struct {
	ScenePath   string `yaml:"scene"`
	OutputPath  string `yaml:"output"`
	PhotoPath   string `yaml:"photo"`
	BlurPath    string `yaml:"blur_photo"`
	Page        int    `yaml:"page"`
	Preview     bool   `yaml:"preview"`
	Watch       bool   `yaml:"watch"`
	ServeAddr   string `yaml:"serve"`
	Deliver     string `yaml:"deliver"`
	Platform    string `yaml:"platform"`
	Product     string `yaml:"product"`
	DownloadDir string `yaml:"download_dir"`

	OverlayDir   string        `yaml:"overlay_dir"`
	FontDirs     []string      `yaml:"font_dirs"`
	EmojiBaseURL string        `yaml:"emoji_base_url"`
	EmojiDir     string        `yaml:"emoji_dir"`
	EmojiTimeout time.Duration `yaml:"emoji_timeout"`
	Offline      bool          `yaml:"offline"`
	Detector     string        `yaml:"detector"`

	ShareCommand     []string `yaml:"share_command"`
	ClipboardCommand []string `yaml:"clipboard_command"`

	Workers      int    `yaml:"workers"`
	ShowStats    bool   `yaml:"stats"`
	BuildVersion string `yaml:"-"`
}

// Default returns the settings used when no file or flag says otherwise.
func Default() *Config {
	return &Config{
		Deliver:      "auto",
		Platform:     "desktop",
		Product:      "postframe",
		DownloadDir:  "output",
		OverlayDir:   "assets/overlays",
		EmojiTimeout: 5 * time.Second,
		Detector:     "contrast",
		Workers:      runtime.NumCPU(),
		BuildVersion: "dev",
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// ApplyPreset adjusts delivery for a target device: "mobile" shares through
// termux, "desktop" copies to the clipboard, "offline" disables the emoji CDN.
func (c *Config) ApplyPreset(name string) error {
	switch name {
	case "":
	case "mobile":
		c.Platform = "mobile"
		if len(c.ShareCommand) == 0 {
			c.ShareCommand = []string{"termux-share", "-a", "send"}
		}
	case "desktop":
		c.Platform = "desktop"
	case "offline":
		c.Offline = true
	default:
		return fmt.Errorf("unknown preset: %s", name)
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.Deliver {
	case "auto", "download", "share", "clipboard":
	default:
		return fmt.Errorf("unknown delivery %q", c.Deliver)
	}
	switch c.Platform {
	case "mobile", "desktop":
	default:
		return fmt.Errorf("unknown platform %q", c.Platform)
	}
	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.EmojiTimeout <= 0 {
		c.EmojiTimeout = 5 * time.Second
	}
	return nil
}
