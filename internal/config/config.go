// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file and
// environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"
)

// Duration is a time.Duration that reads "24h" style strings from JSON and
// flags.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

// Set implements flag.Value.
func (d *Duration) Set(s string) error {
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalJSON accepts a duration string or a number of nanoseconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return d.Set(s)
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid duration %s", b)
	}
	*d = Duration(n)
	return nil
}

// Options holds the configuration values for the application.
type Options struct {
	// Address defines the local API listening address (ip:port).
	Address string `json:"address"`

	// DatabasePath is the SQLite file of the local store.
	DatabasePath string `json:"database_path"`

	// APIBaseURL is the account backend. Empty disables remote calls.
	APIBaseURL string `json:"api_base_url"`

	// CAFile optionally pins the CA bundle trusted for the account backend.
	CAFile string `json:"ca_file"`

	// Locale selects the default category names.
	Locale string `json:"locale"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// BackupInterval is how often an automatic backup is considered.
	BackupInterval Duration `json:"backup_interval"`

	// BackupRetention is how long automatic backups are kept. The newest
	// backup is kept regardless; the default outlasts a monthly schedule.
	BackupRetention Duration `json:"backup_retention"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

func defaults() *Options {
	return &Options{
		Address:         "localhost:8080",
		DatabasePath:    "foodsai.db",
		Locale:          "en",
		LogLevel:        "Info",
		BackupInterval:  Duration(time.Hour),
		BackupRetention: Duration(90 * 24 * time.Hour),
		Config:          "config.json",
	}
}

// Parse parses the process flags and environment. It exits on invalid input.
func Parse() *Options {
	options, err := ParseArgs(os.Args[0], os.Args[1:], os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	return options
}

// ParseArgs builds Options from flags, then the JSON config file, then
// environment variables; later sources override earlier ones.
func ParseArgs(name string, args []string, getenv func(string) string) (*Options, error) {
	options := defaults()

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&options.Address, "a", options.Address, "run on ip:port server")
	fs.StringVar(&options.DatabasePath, "d", options.DatabasePath, "sqlite database path")
	fs.StringVar(&options.APIBaseURL, "api", options.APIBaseURL, "account backend base url")
	fs.StringVar(&options.CAFile, "ca", options.CAFile, "CA bundle for the account backend")
	fs.StringVar(&options.Locale, "locale", options.Locale, "default locale")
	fs.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	fs.Var(&options.BackupInterval, "backup-interval", "automatic backup check interval")
	fs.Var(&options.BackupRetention, "backup-retention", "automatic backup retention")
	fs.StringVar(&options.Config, "config", options.Config, "path to config file")
	fs.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		data, err := os.ReadFile(options.Config)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("error while reading config file: %w", err)
		default:
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if v := getenv("SERVER_ADDRESS"); v != "" {
		options.Address = v
	}
	if v := getenv("DATABASE_PATH"); v != "" {
		options.DatabasePath = v
	}
	if v := getenv("NEXT_PUBLIC_API_BASE_URL"); v != "" {
		options.APIBaseURL = v
	}
	if v := getenv("API_BASE_URL"); v != "" {
		options.APIBaseURL = v
	}
	if v := getenv("LOCALE"); v != "" {
		options.Locale = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		options.LogLevel = v
	}

	if options.BackupInterval <= 0 || options.BackupRetention <= 0 {
		return nil, errors.New("backup interval and retention must be positive")
	}
	return options, nil
}
