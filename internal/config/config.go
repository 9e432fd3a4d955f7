// Package config provides configuration management for the stackctl CLI.
//
// It implements the disciplined Viper pattern where Viper stays contained
// in this package and the rest of the codebase receives explicit Config structs.
// Configuration sources are resolved in this order: flags > env > config file > defaults.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Compose command preferences.
const (
	ComposeAuto       = "auto"
	ComposePlugin     = "plugin"
	ComposeStandalone = "standalone"
)

// Config is the explicit configuration struct
// This is what the rest of the codebase sees
type Config struct {
	ProjectDir     string
	ProjectName    string
	ComposeFile    string
	DevComposeFile string
	ComposeCommand string
	AppDirs        []string
	EnvFile        string
	EnvExample     string
	PullOnStart    bool
	Ports          PortConfig
}

// PortConfig defines host ports for the stack services
type PortConfig struct {
	Web   int
	Agent int
}

// Init initializes viper with defaults and config file paths
func Init() error {
	viper.SetConfigName("stackctl")
	viper.SetConfigType("yaml")

	viper.AddConfigPath("$HOME/.stackctl")
	viper.AddConfigPath(".")

	setDefaults()

	viper.SetEnvPrefix("STACKCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("project-dir", ".")
	viper.SetDefault("project-name", "")
	viper.SetDefault("compose-file", "docker-compose.yml")
	viper.SetDefault("dev-compose-file", "docker-compose.dev.yml")
	viper.SetDefault("compose-command", ComposeAuto)
	viper.SetDefault("app-dirs", []string{"apps/web", "apps/agents"})
	viper.SetDefault("env-file", ".env")
	viper.SetDefault("env-example", ".env.example")
	viper.SetDefault("pull-on-start", false)
	viper.SetDefault("port-web", 3000)
	viper.SetDefault("port-agent", 2024)
}

// BindFlag binds a command flag to a config key so the flag wins over
// env, file and defaults when it is set.
func BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind for %q", key)
	}
	return viper.BindPFlag(key, flag)
}

// Load reads from all sources and returns explicit Config
func Load() (*Config, error) {
	cfg := &Config{
		ProjectDir:     viper.GetString("project-dir"),
		ProjectName:    viper.GetString("project-name"),
		ComposeFile:    viper.GetString("compose-file"),
		DevComposeFile: viper.GetString("dev-compose-file"),
		ComposeCommand: viper.GetString("compose-command"),
		AppDirs:        splitList(viper.GetStringSlice("app-dirs")),
		EnvFile:        viper.GetString("env-file"),
		EnvExample:     viper.GetString("env-example"),
		PullOnStart:    viper.GetBool("pull-on-start"),
		Ports: PortConfig{
			Web:   viper.GetInt("port-web"),
			Agent: viper.GetInt("port-agent"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList flattens comma-separated entries, which is how list values
// arrive from the environment.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate ensures config is sane
func (c *Config) Validate() error {
	switch c.ComposeCommand {
	case ComposeAuto, ComposePlugin, ComposeStandalone:
	default:
		return fmt.Errorf("invalid compose-command: %s (must be auto, plugin, or standalone)", c.ComposeCommand)
	}

	if strings.TrimSpace(c.ComposeFile) == "" {
		return fmt.Errorf("compose-file must not be empty")
	}

	if strings.TrimSpace(c.DevComposeFile) == "" {
		return fmt.Errorf("dev-compose-file must not be empty")
	}

	if filepath.Clean(c.ComposeFile) == filepath.Clean(c.DevComposeFile) {
		return fmt.Errorf("compose-file and dev-compose-file must differ (both %s)", c.ComposeFile)
	}

	if len(c.AppDirs) == 0 {
		return fmt.Errorf("app-dirs must list at least one directory")
	}

	if c.EnvFile == "" || c.EnvExample == "" {
		return fmt.Errorf("env-file and env-example must not be empty")
	}

	if c.Ports.Web < 1 || c.Ports.Web > 65535 {
		return fmt.Errorf("invalid web port: %d", c.Ports.Web)
	}

	if c.Ports.Agent < 1 || c.Ports.Agent > 65535 {
		return fmt.Errorf("invalid agent port: %d", c.Ports.Agent)
	}

	return nil
}

// Path resolves a project-relative path against ProjectDir.
func (c *Config) Path(rel string) string {
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.ProjectDir, rel)
}

// AppPaths returns the app directories resolved against ProjectDir.
func (c *Config) AppPaths() []string {
	paths := make([]string, 0, len(c.AppDirs))
	for _, d := range c.AppDirs {
		paths = append(paths, c.Path(d))
	}
	return paths
}

// SaveAs writes current config to path, refusing to overwrite an existing file.
func SaveAs(cfg *Config, path string) error {
	apply(cfg)
	return viper.SafeWriteConfigAs(path)
}

func apply(cfg *Config) {
	viper.Set("project-dir", cfg.ProjectDir)
	viper.Set("project-name", cfg.ProjectName)
	viper.Set("compose-file", cfg.ComposeFile)
	viper.Set("dev-compose-file", cfg.DevComposeFile)
	viper.Set("compose-command", cfg.ComposeCommand)
	viper.Set("app-dirs", cfg.AppDirs)
	viper.Set("env-file", cfg.EnvFile)
	viper.Set("env-example", cfg.EnvExample)
	viper.Set("pull-on-start", cfg.PullOnStart)
	viper.Set("port-web", cfg.Ports.Web)
	viper.Set("port-agent", cfg.Ports.Agent)
}

// Display shows current config (for stackctl config show)
func Display() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	configFile := viper.ConfigFileUsed()
	if configFile == "" {
		configFile = "(not found)"
	}

	projectName := cfg.ProjectName
	if projectName == "" {
		projectName = "(derived from project-dir)"
	}

	return fmt.Sprintf(`Configuration:
  project-dir:        %s
  project-name:       %s
  compose-file:       %s
  dev-compose-file:   %s
  compose-command:    %s
  app-dirs:           %s
  env-file:           %s
  env-example:        %s
  pull-on-start:      %t

Ports:
  Web:                %d
  Agent:              %d

Sources:
  Config file:        %s
  Environment:        STACKCTL_*
  Flags:              (per command)
`,
		cfg.ProjectDir,
		projectName,
		cfg.ComposeFile,
		cfg.DevComposeFile,
		cfg.ComposeCommand,
		strings.Join(cfg.AppDirs, ", "),
		cfg.EnvFile,
		cfg.EnvExample,
		cfg.PullOnStart,
		cfg.Ports.Web,
		cfg.Ports.Agent,
		configFile,
	), nil
}
