// Package settings holds the process configuration of the spashell binaries:
// where the shell finds its backend, where the dev server finds its pages,
// and the site document the dev server hands to the shell.
package settings

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/vcrobe/spashell/social"
)

// EnvPrefix selects the environment variables that override the file.
// SPASHELL_API_BASE sets api_base.
const EnvPrefix = "SPASHELL_"

// DefaultPath is read when no --config flag is given.
const DefaultPath = "spashell.yaml"

// Site is the document served at <api>/config. Its JSON form is what the
// shell decodes at startup.
type Site struct {
	AppName     string `json:"appName" yaml:"app_name" koanf:"app_name"`
	AppSlogan   string `json:"appSlogan" yaml:"app_slogan" koanf:"app_slogan"`
	AppLogo     string `json:"appLogo" yaml:"app_logo" koanf:"app_logo"`
	Copyright   string `json:"copyright" yaml:"copyright" koanf:"copyright"`
	Separator   string `json:"separator" yaml:"separator" koanf:"separator"`
	ClientWidth int    `json:"clientWidth" yaml:"client_width" koanf:"client_width"`
}

// Settings is the full configuration.
type Settings struct {
	// APIBase is the root of config, social and contacts as seen by the shell.
	APIBase string `yaml:"api_base" koanf:"api_base"`
	// PagesBase is the root of route fragments as seen by the shell.
	PagesBase    string `yaml:"pages_base" koanf:"pages_base"`
	DefaultRoute string `yaml:"default_route" koanf:"default_route"`

	// StoragePath is the SQLite file backing the headless tab's storage.
	StoragePath string `yaml:"storage_path" koanf:"storage_path"`
	// ShellPath is a shell document on disk. Empty means the embedded one.
	ShellPath string `yaml:"shell_path" koanf:"shell_path"`
	LogLevel  string `yaml:"log_level" koanf:"log_level"`

	ListenAddr string `yaml:"listen_addr" koanf:"listen_addr"`
	// PagesDir holds one directory per route. Empty means the embedded pages.
	PagesDir string `yaml:"pages_dir" koanf:"pages_dir"`
	// StaticDir holds build artifacts such as spashell.wasm and wasm_exec.js.
	StaticDir   string   `yaml:"static_dir" koanf:"static_dir"`
	LiveReload  bool     `yaml:"live_reload" koanf:"live_reload"`
	ContactsDB  string   `yaml:"contacts_db" koanf:"contacts_db"`
	CORSOrigins []string `yaml:"cors_origins" koanf:"cors_origins"`

	Site   Site          `yaml:"site" koanf:"site"`
	Social []social.Link `yaml:"social" koanf:"social"`
}

// Default returns the settings used when no file or variable says otherwise.
func Default() *Settings {
	return &Settings{
		APIBase:      "/api",
		PagesBase:    "/pages",
		DefaultRoute: "home",
		StoragePath:  ".spashell/tab.db",
		LogLevel:     "info",
		ListenAddr:   ":8080",
		ContactsDB:   ".spashell/contacts.db",
		Site: Site{
			AppName:     "spashell",
			AppSlogan:   "Pages in place",
			AppLogo:     "/logo.svg",
			Copyright:   "2026 spashell",
			Separator:   "-",
			ClientWidth: 768,
		},
	}
}

// DefaultSocial is served when the configuration lists no links.
func DefaultSocial() []social.Link {
	return []social.Link{
		{Href: "https://github.com/vcrobe/spashell", Name: "GitHub", Icon: "fab fa-github fa-fw"},
		{Href: "mailto:hello@example.com", Name: "E-mail", Icon: "fas fa-envelope fa-fw", NoFooter: true},
	}
}

// Load reads path over the defaults, then applies SPASHELL_* variables.
// A missing file is not an error.
func Load(path string) (*Settings, error) {
	k := koanf.New(".")
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("checking config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env config: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if len(cfg.Social) == 0 {
		cfg.Social = DefaultSocial()
	}
	return cfg, nil
}

// Save writes the settings as YAML.
func (s *Settings) Save(path string) error {
	data, err := s.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// YAML encodes the settings the way Save writes them.
func (s *Settings) YAML() ([]byte, error) {
	data, err := yamlv3.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// ValidationError lists every problem Validate found.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid settings: " + strings.Join(e.Problems, "; ")
}

// Validate checks the settings for consistency.
func (s *Settings) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if _, err := url.Parse(s.APIBase); err != nil {
		add("api_base: %v", err)
	}
	if _, err := url.Parse(s.PagesBase); err != nil {
		add("pages_base: %v", err)
	}
	switch {
	case s.DefaultRoute == "":
		add("default_route is required")
	case strings.ContainsAny(s.DefaultRoute, "#?") || strings.Contains(s.DefaultRoute, "://"):
		add("default_route %q is not a route", s.DefaultRoute)
	}
	if _, err := zap.ParseAtomicLevel(s.LogLevel); err != nil {
		add("log_level %q is not a level", s.LogLevel)
	}
	if s.ListenAddr == "" {
		add("listen_addr is required")
	}
	if s.Site.ClientWidth < 0 {
		add("site.client_width must not be negative, got %d", s.Site.ClientWidth)
	}
	for i, l := range s.Social {
		if l.Href == "" {
			add("social[%d]: href is required", i)
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}
