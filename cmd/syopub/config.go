package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/syopub"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables overriding the configuration files.
const (
	EnvSes     = "SYOPUB_SES"
	EnvUserl   = "SYOPUB_USERL"
	EnvBaseURL = "SYOPUB_BASE_URL"
	EnvDataDir = "SYOPUB_DATA_DIR"
	EnvLedger  = "SYOPUB_LEDGER"
)

// LoadConfig reads the configuration at path, decodes <name>.local.<ext> over
// it when present, then applies environment overrides and defaults. Keys
// set in the local file replace the base values, including false and zero.
// Missing files are not an error: credentials may come from the environment
// alone.
func LoadConfig(path string, getenv func(string) string) (syopub.Config, error) {
	var cfg syopub.Config
	for _, p := range []string{path, localConfigPath(path)} {
		if err := readConfigFile(p, &cfg); err != nil {
			return cfg, err
		}
	}

	applyEnv(&cfg, getenv)
	return cfg.WithDefaults(), nil
}

// readConfigFile decodes path into cfg. Only keys present in the file are
// written.
func readConfigFile(path string, cfg *syopub.Config) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return syopub.Errorf(syopub.ECONFIG, "read %s: %v", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return syopub.Errorf(syopub.ECONFIG, "parse %s: %v", path, err)
	}
	return nil
}

// localConfigPath turns "dir/config.toml" into "dir/config.local.toml".
func localConfigPath(path string) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s.local%s", strings.TrimSuffix(path, ext), ext)
}

func applyEnv(cfg *syopub.Config, getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&cfg.Cookie.Ses, EnvSes)
	set(&cfg.Cookie.Userl, EnvUserl)
	set(&cfg.BaseURL, EnvBaseURL)
	set(&cfg.DataDir, EnvDataDir)
	set(&cfg.LedgerPath, EnvLedger)
}

// ledgerPath returns the ledger database path for cfg.
func ledgerPath(cfg syopub.Config) string {
	if cfg.LedgerPath != "" {
		return cfg.LedgerPath
	}
	return filepath.Join(cfg.DataDir, ".syopub.db")
}
