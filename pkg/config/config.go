package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

var envFilePath string

// The -env flag is registered at package init so it exists before main calls
// flag.Parse. This package never parses the command line itself: callers that
// load config during program init (logger autoload) run before the flags are
// parsed and fall back to ./.env.
func init() {
	if flag.Lookup("env") == nil {
		flag.StringVar(&envFilePath, "env", "", "path to .env file")
	}
}

// MustLoad panics when the environment cannot satisfy the config struct.
// Intended for process startup only.
func MustLoad[T any](prefix string) *T {
	conf, err := Load[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// Load populates a config struct of type T from the environment, optionally
// seeding the environment from an env file first (-env flag, or ./.env when
// present). Fields are resolved by envconfig tags under the given prefix.
func Load[T any](prefix string) (*T, error) {
	filepath := resolveEnvPath()
	if filepath != "" {
		if err := exportEnvironment(filepath); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", filepath, err)
		}
	} else if err := exportEnvironmentIfExists(".env"); err != nil {
		return nil, fmt.Errorf("load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}

	return &conf, nil
}

func resolveEnvPath() string {
	return envPathIfParsed(flag.Parsed())
}

// envPathIfParsed reports the -env value only once the command line has been
// parsed; before that the flag's value is unset by definition.
func envPathIfParsed(parsed bool) string {
	if !parsed {
		return ""
	}
	return strings.TrimSpace(envFilePath)
}

func exportEnvironmentIfExists(filepath string) error {
	info, err := os.Stat(filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(filepath)
}

func exportEnvironment(filepath string) error {
	viper.SetConfigFile(filepath)
	if err := viper.ReadInConfig(); err != nil {
		return err
	}

	for k, v := range viper.AllSettings() {
		if err := os.Setenv(strings.ToUpper(k), fmt.Sprint(v)); err != nil {
			return err
		}
	}

	return nil
}
