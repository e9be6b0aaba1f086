package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"log-level":       "logger.level",
	"db-type":         "database.type",
	"db-path":         "database.sqlite.connection.path",
	"metrics-address": "metrics.address",
	"app-env":         "tracer.app_env",
}

// listKeys are split on commas when read from the environment.
var listKeys = map[string]bool{
	"store.retryable_kinds": true,
}

// RegisterFlags adds the flags Load understands to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("log-level", "", "log level: debug, info, warning or error")
	flags.String("db-type", "", "database type: postgres, mariadb or sqlite")
	flags.String("db-path", "", "SQLite database file")
	flags.String("metrics-address", "", "address of the Prometheus metrics server")
	flags.String("app-env", "", "deployment environment recorded on traces")
}

// Load reads the configuration. cfgFile may be empty, in which case
// farmstore.yaml or farmstore.yml in the working directory is used when
// present. flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// envKey turns FARMSTORE_STORE__RATE_LIMIT__WINDOW into
// store.rate_limit.window.
func envKey(name, value string) (string, interface{}) {
	key := strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if listKeys[key] {
		var items []string
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return key, items
	}
	return key, value
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"farmstore.yaml", "farmstore.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
