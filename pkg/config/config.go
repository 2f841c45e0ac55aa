// Package config loads runtime configuration from an optional YAML file
// layered under environment variables. Defaults apply first, then the file
// named by CONFIG_FILE, then the environment.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

type Config struct {
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s"`
	DatabaseDebug             bool          `koanf:"database_debug"`
	DatabaseFilePath          string        `koanf:"database_file_path"`
	Hostname                  string        `koanf:"hostname"`
	ServerHost                string        `koanf:"server_host" default:"0.0.0.0"`
	ServerPort                int           `koanf:"server_port" default:"8088"`

	LibraryRoots   []string `koanf:"library_roots"`
	BookExtensions []string `koanf:"book_extensions" default:"[\"fb2\",\"epub\",\"mobi\"]"`
	CoversDirPath  string   `koanf:"covers_dir_path" default:"./covers"`

	// DeletedRetention controls what happens to index rows for books whose
	// files have vanished: "soft" keeps them hidden, "purge" removes them.
	DeletedRetention string `koanf:"deleted_retention" default:"soft"`

	// BrowsePageThreshold is the result-count ceiling below which a prefix
	// drilldown level lists entries directly instead of grouping further.
	BrowsePageThreshold int `koanf:"browse_page_threshold" default:"30"`

	ScanScheduleEnabled bool  `koanf:"scan_schedule_enabled"`
	ScanScheduleMinutes []int `koanf:"scan_schedule_minutes" default:"[0]"`
	ScanScheduleHours   []int `koanf:"scan_schedule_hours" default:"[2]"`
	ScanScheduleDays    []int `koanf:"scan_schedule_days" default:"[0,1,2,3,4,5,6]"`
}

const configFileENV = "CONFIG_FILE"

var requiredFields = []string{
	"database_file_path",
	"library_roots",
}

func New() (*Config, error) {
	k := koanf.New(".")

	path := os.Getenv(configFileENV)
	if path == "" {
		path = "./config.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	for _, field := range requiredFields {
		if !k.Exists(field) {
			return nil, errors.Errorf("missing required config: set %s or %s", strings.ToUpper(strcase.ToScreamingSnake(field)), field)
		}
	}

	if err := validateSchedule(cfg); err != nil {
		return nil, err
	}
	switch cfg.DeletedRetention {
	case "soft", "purge":
	default:
		return nil, errors.Errorf("invalid deleted_retention %q: must be soft or purge", cfg.DeletedRetention)
	}

	if cfg.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		cfg.Hostname = hostname
	}

	return cfg, nil
}

func validateSchedule(cfg *Config) error {
	for _, m := range cfg.ScanScheduleMinutes {
		if m < 0 || m > 59 {
			return errors.Errorf("invalid scan_schedule_minutes value %d", m)
		}
	}
	for _, h := range cfg.ScanScheduleHours {
		if h < 0 || h > 23 {
			return errors.Errorf("invalid scan_schedule_hours value %d", h)
		}
	}
	for _, d := range cfg.ScanScheduleDays {
		if d < 0 || d > 6 {
			return errors.Errorf("invalid scan_schedule_days value %d", d)
		}
	}
	return nil
}

// NewForTest returns a config suitable for tests: in-memory database and a
// loopback server address.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.LibraryRoots = []string{"./testdata/library"}
	cfg.ServerHost = "127.0.0.1"
	cfg.Hostname = "test"
	return cfg
}
