package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/banisterious/obsidian-oneirometrics-sub006/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "TAXONOMY"
)

// loadConfig reads config.yaml from configDir with viper. A missing file
// yields the defaults. TAXONOMY_BACKEND, TAXONOMY_SAVE_DELAY,
// TAXONOMY_CACHE_TTL and TAXONOMY_LOG_LEVEL override the file.
func loadConfig(configDir string) (types.Config, error) {
	v := viper.New()
	v.SetDefault("backend", types.DefaultBackend)
	v.SetDefault("save_delay", types.DefaultSaveDelay)
	v.SetDefault("cache_ttl", types.DefaultCacheTTL)
	v.SetDefault("log_level", types.DefaultLogLevel)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	// data_dir is left to paths.ResolveDataDir so config.yaml beats the env.
	for _, key := range []string{"backend", "save_delay", "cache_ttl", "log_level"} {
		_ = v.BindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with cfg if the file does not
// exist. It reports whether a file was written.
func writeConfigIfMissing(configDir string, cfg types.Config) (bool, error) {
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := "# taxonomy configuration\n# backend: json | sqlite | memory\n"
	return true, os.WriteFile(path, append([]byte(header), data...), 0o644)
}
