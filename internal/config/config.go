package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"marky/internal/errors"

	"github.com/gobwas/glob"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Font size bounds shared by every front end.
const (
	MinFontSize     = 12
	MaxFontSize     = 80
	DefaultFontSize = 16
	FontStep        = 2
)

// DefaultMaxFileSize is the largest file Open will load (10 MiB).
const DefaultMaxFileSize int64 = 10 << 20

// Config represents the application configuration structure.
// It is read once at startup and never written back.
type Config struct {
	Editor struct {
		FontSize int  `yaml:"font_size"` // Initial and reset font size
		WordWrap bool `yaml:"word_wrap"` // Initial word wrap state
	} `yaml:"editor"`
	Dialogs struct {
		Native bool `yaml:"native"` // Use the OS file dialogs instead of the toolkit's
	} `yaml:"dialogs"`
	Files struct {
		Markdown []string `yaml:"markdown"` // Glob patterns matched against base names
		MaxSize  int64    `yaml:"max_size"` // Largest readable file in bytes
	} `yaml:"files"`
	Preview struct {
		CodeStyle string `yaml:"code_style"` // chroma style for fenced code blocks
	} `yaml:"preview"`
	Theme struct {
		Name string `yaml:"name"` // default, dark, light
	} `yaml:"theme"`
	Status struct {
		ShowIOErrors bool `yaml:"show_io_errors"` // Report dialog/disk failures in the status bar
	} `yaml:"status"`

	markdown []glob.Glob
}

// LoadConfig loads configuration from the default location
// (~/.config/marky/config.yaml).
func LoadConfig() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(home, ".config", "marky", "config.yaml")
	return LoadConfigFile(configPath)
}

// LoadConfigFile loads configuration from a specific file path.
// If the file doesn't exist, returns default configuration. Environment
// overrides (and a .env file in the working directory) are applied last.
func LoadConfigFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.NewConfigError("error reading config file", path, errors.ConfigUnreadable, err)
	}

	if err == nil {
		var tempCfg Config
		if err := yaml.Unmarshal(data, &tempCfg); err != nil {
			return nil, errors.NewConfigError("error parsing config file", path, errors.InvalidConfig, err)
		}
		cfg.merge(&tempCfg)
	}

	// A missing .env is the common case.
	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse builds a configuration from YAML bytes on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := defaultConfig()
	var tempCfg Config
	if err := yaml.Unmarshal(data, &tempCfg); err != nil {
		return nil, errors.NewConfigError("error parsing config", "", errors.InvalidConfig, err)
	}
	cfg.merge(&tempCfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(tempCfg *Config) {
	if tempCfg.Editor.FontSize != 0 {
		c.Editor.FontSize = tempCfg.Editor.FontSize
	}
	c.Editor.WordWrap = tempCfg.Editor.WordWrap
	c.Dialogs.Native = tempCfg.Dialogs.Native
	if len(tempCfg.Files.Markdown) > 0 {
		c.Files.Markdown = tempCfg.Files.Markdown
	}
	if tempCfg.Files.MaxSize != 0 {
		c.Files.MaxSize = tempCfg.Files.MaxSize
	}
	if tempCfg.Preview.CodeStyle != "" {
		c.Preview.CodeStyle = tempCfg.Preview.CodeStyle
	}
	if tempCfg.Theme.Name != "" {
		c.Theme.Name = tempCfg.Theme.Name
	}
	c.Status.ShowIOErrors = tempCfg.Status.ShowIOErrors
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MARKY_FONT_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Editor.FontSize = n
		}
	}
	if v := os.Getenv("MARKY_NATIVE_DIALOGS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Dialogs.Native = b
		}
	}
}

// Debug reports whether MARKY_DEBUG asks for debug logging.
func Debug() bool {
	b, _ := strconv.ParseBool(os.Getenv("MARKY_DEBUG"))
	return b
}

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Editor.FontSize = DefaultFontSize
	cfg.Editor.WordWrap = false
	cfg.Dialogs.Native = false
	cfg.Files.Markdown = []string{"*.md", "*.markdown", "*.mdown", "README*"}
	cfg.Files.MaxSize = DefaultMaxFileSize
	cfg.Preview.CodeStyle = "monokai"
	cfg.Theme.Name = "default"
	cfg.Status.ShowIOErrors = false
	return cfg
}

// New returns the default configuration.
func New() *Config {
	cfg := defaultConfig()
	// Defaults always validate.
	_ = cfg.Validate()
	return cfg
}

// Validate checks if the configuration is valid and compiles the markdown
// patterns. The initial font size is clamped rather than rejected.
func (c *Config) Validate() error {
	if c == nil {
		return errors.NewConfigError("nil config", "", errors.InvalidConfig, nil)
	}

	c.Editor.FontSize = ClampFontSize(c.Editor.FontSize)

	if c.Files.MaxSize < 0 {
		return errors.NewConfigError("max_size must be >= 0", "files.max_size", errors.InvalidConfig, nil)
	}

	validThemes := map[string]bool{"default": true, "dark": true, "light": true}
	if !validThemes[c.Theme.Name] {
		return errors.NewConfigError(fmt.Sprintf("unknown theme %q", c.Theme.Name), "theme.name", errors.InvalidConfig, nil)
	}

	compiled := make([]glob.Glob, 0, len(c.Files.Markdown))
	for i, pattern := range c.Files.Markdown {
		if pattern == "" {
			return errors.NewConfigError(fmt.Sprintf("pattern %d is empty", i), "files.markdown", errors.InvalidConfig, nil)
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return errors.NewConfigError(fmt.Sprintf("pattern %q", pattern), "files.markdown", errors.InvalidConfig, err)
		}
		compiled = append(compiled, g)
	}
	c.markdown = compiled

	return nil
}

// IsMarkdown reports whether path's base name matches one of the markdown
// patterns. An empty path is treated as markdown, since new files preview
// as markdown.
func (c *Config) IsMarkdown(path string) bool {
	if path == "" {
		return true
	}
	name := filepath.Base(path)
	for _, g := range c.markdown {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// MaxFileSize returns the read limit; zero means unlimited.
func (c *Config) MaxFileSize() int64 {
	return c.Files.MaxSize
}

// ClampFontSize bounds size to [MinFontSize, MaxFontSize]. Zero maps to
// the default.
func ClampFontSize(size int) int {
	if size == 0 {
		return DefaultFontSize
	}
	if size < MinFontSize {
		return MinFontSize
	}
	if size > MaxFontSize {
		return MaxFontSize
	}
	return size
}

// ListThemes returns a list of available theme names.
func ListThemes() []string {
	return []string{"default", "dark", "light"}
}
