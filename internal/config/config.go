package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeBatch = "batch"
	ModeStdio = "stdio"

	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// EnvPrefix prefixes every environment variable, e.g. F931_DIR
	EnvPrefix = "F931"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// ErrVersionRequested is returned by LoadFromFlags when --version is passed
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the F.931 consolidator
type Config struct {
	Mode string // "batch" or "stdio"

	// Input and output
	Directory string // PDFs to consolidate (batch) or the only readable tree (stdio)
	OutputDir string // where workbooks are written, defaults to Directory
	Company   string // export only this company in batch mode

	// Engine
	Workers           int
	PositionalPeriods bool
	MaxFileSize       int64 // Maximum PDF file size in bytes

	// Application configuration
	ConfigFile string
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:        ModeBatch,
		Directory:   currentDir,
		Workers:     runtime.NumCPU(),
		MaxFileSize: DefaultMaxFileSize,
		Version:     "1.0.0",
		ServerName:  "f931-consolidator",
		LogLevel:    DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags, environment variables and the
// optional config file, in increasing order of precedence: config file,
// environment, flags
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	populateConfigFromViper(cfg)

	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = cfg.Directory
	} else if expandedPath, err := filepath.Abs(cfg.OutputDir); err == nil {
		cfg.OutputDir = expandedPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("dir", cfg.Directory)
	viper.SetDefault("output", cfg.OutputDir)
	viper.SetDefault("company", cfg.Company)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("positional-periods", cfg.PositionalPeriods)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'batch' to consolidate a directory, 'stdio' for the MCP server")
	pflag.String("dir", cfg.Directory, "Directory containing F.931 PDF files")
	pflag.String("output", cfg.OutputDir, "Directory for the exported workbooks (defaults to --dir)")
	pflag.String("company", cfg.Company, "Export only this company (CUIT or name)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Int("workers", cfg.Workers, "Documents processed in parallel")
	pflag.Bool("positional-periods", cfg.PositionalPeriods, "Give documents without a readable period a DOC-NNN column")
	pflag.String("config", "", "Optional config file (yaml, json or toml)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "dir", "output", "company", "loglevel",
		"maxfilesize", "workers", "positional-periods", "config",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nF.931 consolidator - builds a per-period workbook from F.931 declarations\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/f931                    # one workbook per company\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/f931 --company=30-71234567-8\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/path/to/f931       # MCP server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  F931_MODE                Run mode\n")
		fmt.Fprintf(os.Stderr, "  F931_DIR                 PDF directory\n")
		fmt.Fprintf(os.Stderr, "  F931_OUTPUT              Output directory\n")
		fmt.Fprintf(os.Stderr, "  F931_COMPANY             Company filter\n")
		fmt.Fprintf(os.Stderr, "  F931_LOGLEVEL            Log level\n")
		fmt.Fprintf(os.Stderr, "  F931_MAXFILESIZE         Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  F931_WORKERS             Parallel documents\n")
		fmt.Fprintf(os.Stderr, "  F931_POSITIONAL_PERIODS  DOC-NNN placeholder periods\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Directory = viper.GetString("dir")
	cfg.OutputDir = viper.GetString("output")
	cfg.Company = viper.GetString("company")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Workers = viper.GetInt("workers")
	cfg.PositionalPeriods = viper.GetBool("positional-periods")
	cfg.ConfigFile = viper.GetString("config")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeBatch && c.Mode != ModeStdio {
		return errors.New("mode must be either 'batch' or 'stdio'")
	}

	if c.Directory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	info, err := os.Stat(c.Directory)
	switch {
	case os.IsNotExist(err) && c.Mode == ModeStdio:
		if err := os.MkdirAll(c.Directory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.Directory, err)
		}
	case os.IsNotExist(err):
		return fmt.Errorf("PDF directory does not exist: %s", c.Directory)
	case err != nil:
		return fmt.Errorf("cannot access PDF directory %s: %w", c.Directory, err)
	case !info.IsDir():
		return fmt.Errorf("PDF directory is not a directory: %s", c.Directory)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.Workers <= 0 {
		return errors.New("workers must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// SlogLevel maps LogLevel to a slog level
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Directory: %s, OutputDir: %s, Company: %q, Workers: %d, "+
		"PositionalPeriods: %t, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.Directory, c.OutputDir, c.Company, c.Workers,
		c.PositionalPeriods, c.LogLevel, c.MaxFileSize)
}

// IsBatchMode returns true if the binary consolidates a directory and exits
func (c *Config) IsBatchMode() bool {
	return c.Mode == ModeBatch
}

// IsStdioMode returns true if the binary serves MCP over standard I/O
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
