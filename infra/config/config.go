package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const path = "infra/config"

const (
	ConfigDirKey  = "PCE_CONFIG_DIR"
	PortKey       = "PCE_PORT"
	LogLevelKey   = "PCE_LOG_LEVEL"
	StorageDirKey = "PCE_STORAGE_DIR"
)

// Env holds the settings that can be overridden through the environment.
type Env struct {
	ConfigDir  string
	Port       int
	LogLevel   zerolog.Level
	StorageDir string
}

// DefaultEnv returns the settings used when nothing is set in the environment.
func DefaultEnv() Env {
	return Env{
		ConfigDir:  path,
		Port:       6080,
		LogLevel:   zerolog.InfoLevel,
		StorageDir: "file-storage",
	}
}

// LoadEnv reads the environment on top of the defaults.
// The given .env files are loaded first if they exist, variables already set take precedence.
func LoadEnv(files ...string) (Env, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Env{}, fmt.Errorf("could not load env file '%s': %w", f, err)
		}
	}

	env := DefaultEnv()
	if v, ok := os.LookupEnv(ConfigDirKey); ok && v != "" {
		env.ConfigDir = v
	}
	if v, ok := os.LookupEnv(StorageDirKey); ok && v != "" {
		env.StorageDir = v
	}
	if v, ok := os.LookupEnv(PortKey); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return Env{}, fmt.Errorf("could not parse %s '%s': %w", PortKey, v, err)
		}
		env.Port = port
	}
	if v, ok := os.LookupEnv(LogLevelKey); ok && v != "" {
		level, err := zerolog.ParseLevel(v)
		if err != nil {
			return Env{}, fmt.Errorf("could not parse %s '%s': %w", LogLevelKey, v, err)
		}
		env.LogLevel = level
	}
	return env, nil
}

// MustLoadEnv loads the environment from an optional .env file in the working directory.
func MustLoadEnv() Env {
	env, err := LoadEnv(".env")
	if err != nil {
		panic(fmt.Sprintf("could not load env: %s", err.Error()))
	}
	return env
}

// Load loads the config for the given key from <dir>/<key>.json
func Load(dir, key string, v interface{}) ([]byte, error) {
	b, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("%s.json", key)))
	if err != nil {
		return nil, fmt.Errorf("could not load config for %s: %w", key, err)
	}

	err = json.Unmarshal(b, v)
	if err != nil {
		return nil, fmt.Errorf("could not unmarshal the config for %s: %w", key, err)
	}

	log.Info().Str("config", key).Str("dir", dir).Msg("loaded config")
	return b, nil
}

// MustLoad loads the config for the given key from the config dir of the environment.
func MustLoad(key string, v interface{}) []byte {
	dir := path
	if d, ok := os.LookupEnv(ConfigDirKey); ok && d != "" {
		dir = d
	}
	b, err := Load(dir, key, v)
	if err != nil {
		panic(err.Error())
	}
	return b
}
