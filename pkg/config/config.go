package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for depscout
type Config struct {
	Scan   ScanConfig   `mapstructure:"scan"`
	Report ReportConfig `mapstructure:"report"`
	EOL    EOLConfig    `mapstructure:"eol"`
	Policy PolicyConfig `mapstructure:"policy"`
}

// ScanConfig holds scanner behavior options
type ScanConfig struct {
	Roots            []string      `mapstructure:"roots"`
	MaxDepth         int           `mapstructure:"max_depth"`
	Patterns         []string      `mapstructure:"patterns"`
	SkipApps         bool          `mapstructure:"skip_apps"`
	SkipProcesses    bool          `mapstructure:"skip_processes"`
	JavaProbeTimeout time.Duration `mapstructure:"java_probe_timeout"`
	DotnetTimeout    time.Duration `mapstructure:"dotnet_timeout"`
	PhaseTimeout     time.Duration `mapstructure:"phase_timeout"`
	MaxFileSize      int64         `mapstructure:"max_file_size"`
}

// ReportConfig holds report output options
type ReportConfig struct {
	Output   string `mapstructure:"output"`
	Format   string `mapstructure:"format"`
	Pretty   bool   `mapstructure:"pretty"`
	Validate bool   `mapstructure:"validate"`
}

// EOLConfig holds end-of-life catalog options
type EOLConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
}

// PolicyConfig holds report gating options
type PolicyConfig struct {
	Path    string `mapstructure:"path"`
	Enabled bool   `mapstructure:"enabled"`
}

var defaultConfig = Config{
	Scan: ScanConfig{
		Roots: []string{
			`C:\Program Files`,
			`C:\Program Files (x86)`,
			`C:\ProgramData`,
		},
		MaxDepth: 3,
		Patterns: []string{
			"**/*.jar",
			"**/*.runtimeconfig.json",
			"**/*.deps.json",
			"**/*.exe.config",
			"**/*.csproj",
		},
		SkipApps:         false,
		SkipProcesses:    false,
		JavaProbeTimeout: parseDurationDefault("2s"),
		DotnetTimeout:    parseDurationDefault("10s"),
		PhaseTimeout:     parseDurationDefault("2m"),
		MaxFileSize:      4 << 20,
	},
	Report: ReportConfig{
		Output:   "dependency_report.json",
		Format:   "json",
		Pretty:   true,
		Validate: true,
	},
	EOL: EOLConfig{
		CatalogPath: "",
	},
	Policy: PolicyConfig{
		Path:    "",
		Enabled: false,
	},
}

// LoadConfig loads configuration from various sources
func LoadConfig() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("scan.roots", defaultConfig.Scan.Roots)
	v.SetDefault("scan.max_depth", defaultConfig.Scan.MaxDepth)
	v.SetDefault("scan.patterns", defaultConfig.Scan.Patterns)
	v.SetDefault("scan.skip_apps", defaultConfig.Scan.SkipApps)
	v.SetDefault("scan.skip_processes", defaultConfig.Scan.SkipProcesses)
	v.SetDefault("scan.java_probe_timeout", defaultConfig.Scan.JavaProbeTimeout)
	v.SetDefault("scan.dotnet_timeout", defaultConfig.Scan.DotnetTimeout)
	v.SetDefault("scan.phase_timeout", defaultConfig.Scan.PhaseTimeout)
	v.SetDefault("scan.max_file_size", defaultConfig.Scan.MaxFileSize)

	v.SetDefault("report.output", defaultConfig.Report.Output)
	v.SetDefault("report.format", defaultConfig.Report.Format)
	v.SetDefault("report.pretty", defaultConfig.Report.Pretty)
	v.SetDefault("report.validate", defaultConfig.Report.Validate)

	v.SetDefault("eol.catalog_path", defaultConfig.EOL.CatalogPath)

	v.SetDefault("policy.path", defaultConfig.Policy.Path)
	v.SetDefault("policy.enabled", defaultConfig.Policy.Enabled)

	// Configuration file search paths
	v.SetConfigName("depscout")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")     // Current directory
	v.AddConfigPath("$HOME") // Home directory

	if configDir, err := GetConfigDir(); err == nil {
		v.AddConfigPath(configDir)
	}

	// Environment variables
	v.SetEnvPrefix("DEPSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Try to read config file (optional); ignore error to use defaults
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %v", err)
	}

	return &config, nil
}

// LoadProjectConfig loads directory-local configuration layered over the
// global config.
func LoadProjectConfig() (*Config, error) {
	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	projectConfigs := []string{
		".depscout.yaml",
		".depscout.yml",
		".depscout.json",
		"depscout.yaml",
		"depscout.yml",
		"depscout.json",
	}

	for _, configFile := range projectConfigs {
		if _, err := os.Stat(configFile); err == nil {
			v := viper.New()
			v.SetConfigFile(configFile)

			if err := v.ReadInConfig(); err != nil {
				continue // Try next config file
			}

			if err := v.Unmarshal(config); err != nil {
				continue
			}

			break
		}
	}

	return config, nil
}

// MergeFile overlays the configuration file at path onto c. Used for
// the --config flag, which wins over every discovered file.
func (c *Config) MergeFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %v", path, err)
	}
	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("error unmarshaling config file %s: %v", path, err)
	}
	return nil
}

// GetScanConfig returns scanner configuration
func (c *Config) GetScanConfig() ScanConfig { return c.Scan }

// GetReportConfig returns report configuration
func (c *Config) GetReportConfig() ReportConfig { return c.Report }

// parseDurationDefault is a helper to create default duration values from string literal
func parseDurationDefault(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// GetDepscoutHome returns the depscout home directory
func GetDepscoutHome() (string, error) {
	// Check environment variable first
	if home := os.Getenv("DEPSCOUT_HOME"); home != "" {
		return home, nil
	}

	// Use standard dev tool convention: ~/.depscout
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %v", err)
	}

	return filepath.Join(homeDir, ".depscout"), nil
}

// EnsureDepscoutHome creates the depscout home directory if it doesn't exist
func EnsureDepscoutHome() (string, error) {
	homeDir, err := GetDepscoutHome()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(homeDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create depscout home directory: %v", err)
	}

	return homeDir, nil
}

// GetConfigDir returns the config directory
func GetConfigDir() (string, error) {
	homeDir, err := EnsureDepscoutHome()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(homeDir, "config")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create config directory: %v", err)
	}
	return configDir, nil
}

// GetLogDir returns the log directory
func GetLogDir() (string, error) {
	homeDir, err := EnsureDepscoutHome()
	if err != nil {
		return "", err
	}
	logDir := filepath.Join(homeDir, "logs")
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create log directory: %v", err)
	}
	return logDir, nil
}

// GetCacheDir returns the cache directory
func GetCacheDir() (string, error) {
	homeDir, err := EnsureDepscoutHome()
	if err != nil {
		return "", err
	}
	cacheDir := filepath.Join(homeDir, "cache")
	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %v", err)
	}
	return cacheDir, nil
}
