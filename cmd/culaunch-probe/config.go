package main

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/djeday123/culaunch"
)

// Config is the optional probe configuration file
// (~/.config/culaunch/config.yaml).
type Config struct {
	Device      int    `yaml:"device"`
	LibcudaPath string `yaml:"libcuda_path"`
	LogLevel    string `yaml:"log_level"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "culaunch", "config.yaml")
}

// loadConfig reads the config file if present. A missing file is not an
// error; a malformed one is logged and ignored.
func loadConfig() Config {
	return loadConfigFrom(configPath())
}

func loadConfigFrom(path string) Config {
	var cfg Config
	if path == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Warnf("ignoring malformed config %s: %v", path, err)
		return Config{}
	}
	if cfg.LibcudaPath != "" && os.Getenv(culaunch.EnvLibcudaPath) == "" {
		os.Setenv(culaunch.EnvLibcudaPath, cfg.LibcudaPath)
	}
	return cfg
}
