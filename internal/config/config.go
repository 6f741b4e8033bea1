// Package config loads connector settings from an INI/YAML/TOML file,
// ENSILO_* environment variables and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/crimson-sun/ensilo-events/internal/connector"
	"github.com/crimson-sun/ensilo-events/internal/mapping"
	"github.com/crimson-sun/ensilo-events/internal/model"
)

// DefaultFile is read when no config path is given. It may be absent.
const DefaultFile = "ensilo.conf"

// Section holds the connector keys inside the config file.
const Section = "ensilo"

// Output names accepted in the outputs key.
const (
	OutputSyslog        = "syslog"
	OutputStdout        = "stdout"
	OutputFile          = "file"
	OutputWebhook       = "webhook"
	OutputElasticsearch = "elasticsearch"
)

// State backends accepted in the state_backend key.
const (
	StateFile  = "file"
	StateRedis = "redis"
)

// Config holds all connector configuration.
type Config struct {
	Connector connector.ConnectorConfig
	State     StateConfig
	Output    OutputConfig
	Mapping   MappingConfig

	TimeOffset  time.Duration
	Timezone    string
	PIDFile     string
	MetricsFile string
	LogLevel    string
}

// StateConfig selects where the watermark is kept.
type StateConfig struct {
	Backend  string
	Dir      string
	Key      string
	RedisURL string
}

// OutputConfig holds event sink settings.
type OutputConfig struct {
	Sinks              []string
	SyslogNetwork      string // empty means the local syslog daemon
	SyslogAddress      string
	SyslogTag          string
	File               string
	FileMaxSize        int64 // bytes; 0 disables rotation
	WebhookURL         string
	ElasticsearchURLs  []string
	ElasticsearchIndex string
}

// MappingConfig holds the validated per-category field renames.
type MappingConfig struct {
	Events       map[string]string
	SystemEvents map[string]string
}

var defaults = map[string]any{
	"auth_method":             connector.AuthToken,
	"state_dir":               ".",
	"state_backend":           StateFile,
	"state_key":               "ensilo",
	"time_offset":             1,
	"timezone":                "UTC",
	"pid_file":                "ensilo-events.pid",
	"outputs":                 OutputSyslog,
	"syslog_tag":              "ensilo-events",
	"elasticsearch_index":     "ensilo-events",
	"request_timeout":         "15s",
	"verify_tls":              false,
	"log_level":               "info",
	"events_field_map":        "",
	"system_events_field_map": "",
	"server_url":              "",
	"username":                "",
	"password":                "",
	"token":                   "",
	"redis_url":               "",
	"metrics_file":            "",
	"syslog_network":          "",
	"syslog_address":          "",
	"output_file":             "",
	"output_file_max_size":    0,
	"webhook_url":             "",
	"elasticsearch_url":       "",
}

// Load reads configuration from path (DefaultFile when empty), overlaid by
// ENSILO_<KEY> environment variables. A missing DefaultFile is not an error.
func Load(path string) (Config, error) {
	// .env only fills variables that are not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("%w: .env: %v", connector.ErrConfiguration, err)
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(Section+"."+k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".toml", ".json":
		default:
			v.SetConfigType("ini")
		}
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("%w: read %s: %v", connector.ErrConfiguration, path, err)
		}
	} else if explicit {
		return Config{}, fmt.Errorf("%w: %v", connector.ErrConfiguration, err)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	get := func(k string) string { return strings.TrimSpace(v.GetString(Section + "." + k)) }

	cfg := Config{
		Connector: connector.ConnectorConfig{
			Provider:   "ensilo",
			Endpoint:   strings.TrimRight(get("server_url"), "/"),
			AuthMethod: strings.ToLower(get("auth_method")),
			Username:   get("username"),
			Password:   get("password"),
			Token:      get("token"),
			VerifyTLS:  v.GetBool(Section + ".verify_tls"),
		},
		State: StateConfig{
			Backend:  strings.ToLower(get("state_backend")),
			Dir:      get("state_dir"),
			Key:      get("state_key"),
			RedisURL: get("redis_url"),
		},
		Output: OutputConfig{
			Sinks:              splitList(strings.ToLower(get("outputs"))),
			SyslogNetwork:      get("syslog_network"),
			SyslogAddress:      get("syslog_address"),
			SyslogTag:          get("syslog_tag"),
			File:               get("output_file"),
			WebhookURL:         get("webhook_url"),
			ElasticsearchURLs:  splitList(get("elasticsearch_url")),
			ElasticsearchIndex: get("elasticsearch_index"),
		},
		Timezone:    get("timezone"),
		PIDFile:     get("pid_file"),
		MetricsFile: get("metrics_file"),
		LogLevel:    get("log_level"),
	}

	offset, err := strconv.Atoi(get("time_offset"))
	if err != nil {
		return Config{}, fmt.Errorf("%w: time_offset: %v", connector.ErrConfiguration, err)
	}
	cfg.TimeOffset = time.Duration(offset) * time.Minute

	maxSize, err := strconv.ParseInt(get("output_file_max_size"), 10, 64)
	if err != nil || maxSize < 0 {
		return Config{}, fmt.Errorf("%w: output_file_max_size must be a non-negative byte count", connector.ErrConfiguration)
	}
	cfg.Output.FileMaxSize = maxSize

	timeout, err := time.ParseDuration(get("request_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("%w: request_timeout: %v", connector.ErrConfiguration, err)
	}
	cfg.Connector.RequestTimeout = timeout

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("%w: timezone %q: %v", connector.ErrConfiguration, cfg.Timezone, err)
	}
	cfg.Connector.Location = loc

	cfg.Mapping.Events, err = fieldMap(model.CategoryEvents, mapping.DefaultEvents, get("events_field_map"))
	if err != nil {
		return Config{}, err
	}
	cfg.Mapping.SystemEvents, err = fieldMap(model.CategorySystemEvents, mapping.DefaultSystemEvents, get("system_events_field_map"))
	if err != nil {
		return Config{}, err
	}

	return cfg, cfg.Validate()
}

func fieldMap(category string, base map[string]string, raw string) (map[string]string, error) {
	overrides, err := mapping.ParseOverrides(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s field map: %v", connector.ErrConfiguration, category, err)
	}
	merged := mapping.Merge(base, overrides)
	if _, err := mapping.New(category, merged); err != nil {
		return nil, fmt.Errorf("%w: %v", connector.ErrConfiguration, err)
	}
	return merged, nil
}

// Validate checks required keys and cross-key constraints.
func (c Config) Validate() error {
	var errs []string
	if c.Connector.Endpoint == "" {
		errs = append(errs, "server_url is required")
	}
	switch c.Connector.AuthMethod {
	case connector.AuthBasic:
		if c.Connector.Username == "" || c.Connector.Password == "" {
			errs = append(errs, "auth_method basic requires username and password")
		}
	case connector.AuthToken:
		if c.Connector.Token == "" {
			errs = append(errs, "auth_method token requires token")
		}
	default:
		errs = append(errs, fmt.Sprintf("auth_method must be %q or %q, got %q",
			connector.AuthBasic, connector.AuthToken, c.Connector.AuthMethod))
	}
	if c.TimeOffset < 0 {
		errs = append(errs, "time_offset must not be negative")
	}
	if c.Connector.RequestTimeout <= 0 {
		errs = append(errs, "request_timeout must be positive")
	}
	if c.PIDFile == "" {
		errs = append(errs, "pid_file is required")
	}

	switch c.State.Backend {
	case StateFile:
		if c.State.Dir == "" {
			errs = append(errs, "state_dir is required")
		}
	case StateRedis:
		if c.State.RedisURL == "" {
			errs = append(errs, "state_backend redis requires redis_url")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown state_backend %q", c.State.Backend))
	}
	if c.State.Key == "" {
		errs = append(errs, "state_key is required")
	}

	if len(c.Output.Sinks) == 0 {
		errs = append(errs, "outputs must name at least one sink")
	}
	for _, s := range c.Output.Sinks {
		switch s {
		case OutputSyslog, OutputStdout:
		case OutputFile:
			if c.Output.File == "" {
				errs = append(errs, "output file requires output_file")
			}
		case OutputWebhook:
			if c.Output.WebhookURL == "" {
				errs = append(errs, "output webhook requires webhook_url")
			}
		case OutputElasticsearch:
			if len(c.Output.ElasticsearchURLs) == 0 {
				errs = append(errs, "output elasticsearch requires elasticsearch_url")
			}
		default:
			errs = append(errs, fmt.Sprintf("unknown output %q", s))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", connector.ErrConfiguration, strings.Join(errs, "; "))
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

