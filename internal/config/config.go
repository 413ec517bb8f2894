// Package config loads the sfuctl configuration from a TOML file, SFUCTL_
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SFUCTL_"

// Config is the sfuctl configuration. The toml tag is a dotted path into the
// file, the env tag is appended to EnvPrefix, and the flag name is the field
// name in kebab case.
type Config struct {
	Config string `toml:"-"`

	NumWorkers   int      `toml:"worker.count" env:"NUM_WORKERS"`
	WorkerBin    string   `toml:"worker.bin" env:"WORKER_BIN"`
	LogLevel     string   `toml:"worker.log_level" env:"LOG_LEVEL"`
	LogTags      []string `toml:"worker.log_tags" env:"LOG_TAGS"`
	RtcMinPort   int      `toml:"worker.rtc_min_port" env:"RTC_MIN_PORT"`
	RtcMaxPort   int      `toml:"worker.rtc_max_port" env:"RTC_MAX_PORT"`
	DtlsCertFile string   `toml:"worker.dtls_cert_file" env:"DTLS_CERT_FILE"`
	DtlsKeyFile  string   `toml:"worker.dtls_key_file" env:"DTLS_KEY_FILE"`
	AdminAddr    string   `toml:"admin.addr" env:"ADMIN_ADDR"`
	MetricsPath  string   `toml:"admin.metrics_path" env:"METRICS_PATH"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		NumWorkers:  runtime.NumCPU(),
		LogLevel:    "error",
		RtcMinPort:  10000,
		RtcMaxPort:  59999,
		AdminAddr:   "127.0.0.1:4480",
		MetricsPath: "/metrics",
	}
}

var (
	logLevels = []string{"debug", "warn", "error", "none"}
	logTags   = []string{
		"info", "ice", "dtls", "rtp", "srtp", "rtcp", "rtx", "bwe",
		"score", "simulcast", "svc", "sctp", "message",
	}
)

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.NumWorkers < 1 {
		errs = append(errs, fmt.Errorf("worker.count must be at least 1, got %d", c.NumWorkers))
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("worker.log_level %q is not one of %v", c.LogLevel, logLevels))
	}
	for _, tag := range c.LogTags {
		if !slices.Contains(logTags, tag) {
			errs = append(errs, fmt.Errorf("worker.log_tags: unknown tag %q", tag))
		}
	}
	if c.RtcMinPort < 1 || c.RtcMaxPort > 65535 || c.RtcMinPort > c.RtcMaxPort {
		errs = append(errs, fmt.Errorf("invalid rtc port range [%d, %d]", c.RtcMinPort, c.RtcMaxPort))
	}
	if (c.DtlsCertFile == "") != (c.DtlsKeyFile == "") {
		errs = append(errs, errors.New("worker.dtls_cert_file and worker.dtls_key_file go together"))
	}

	return errors.Join(errs...)
}

// Load fills cfg with precedence flags > env > file > current values. Only
// the flags of cmd that were explicitly set win over env and file; cmd may
// be nil. A missing file is not an error.
func Load(cfg *Config, cmd *cobra.Command) error {
	changed := make(map[string]bool)
	if cmd != nil {
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed {
				changed[f.Name] = true
			}
		})
	}

	var file map[string]any
	if cfg.Config != "" {
		data, err := os.ReadFile(cfg.Config)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, &file); err != nil {
				return fmt.Errorf("parse config %s: %w", cfg.Config, err)
			}
		}
	}

	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if changed[FlagName(fieldType.Name)] {
			continue
		}
		if path := fieldType.Tag.Get("toml"); path != "" && path != "-" && file != nil {
			if value := lookup(file, path); value != nil {
				if err := setValue(field, value); err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}
		}
		if key := fieldType.Tag.Get("env"); key != "" {
			if value := os.Getenv(EnvPrefix + key); value != "" {
				if err := setString(field, value); err != nil {
					return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
				}
			}
		}
	}

	return nil
}

// LoadFile returns the defaults overridden by the file at path and the
// environment.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	cfg.Config = path
	if err := Load(&cfg, nil); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FlagName converts a field name to its flag name, "NumWorkers" gives
// "num-workers".
func FlagName(fieldName string) string {
	var b strings.Builder
	for i, r := range fieldName {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func lookup(data map[string]any, path string) any {
	parts := strings.Split(path, ".")
	current := data

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return nil
		}
		current = next
	}
	return current[parts[len(parts)-1]]
}

func setValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(s)

	case reflect.Int:
		i, ok := value.(int64)
		if !ok {
			return fmt.Errorf("expected integer, got %T", value)
		}
		field.SetInt(i)

	case reflect.Slice:
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
		strs := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected array of strings, got %T item", item)
			}
			strs = append(strs, s)
		}
		field.Set(reflect.ValueOf(strs))
	}
	return nil
}

func setString(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int:
		i, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(i))

	case reflect.Slice:
		var strs []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				strs = append(strs, part)
			}
		}
		field.Set(reflect.ValueOf(strs))
	}
	return nil
}
