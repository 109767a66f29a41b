/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/nfcglucose/go-libre/pkg/log"
)

type ApiConfig struct {
	Address string `yaml:"address" env:"GO_LIBRE_API_ADDRESS"`
	Port    int    `yaml:"port" env:"GO_LIBRE_API_PORT"`
}

type Config struct {
	LogLevel  string    `yaml:"logLevel" env:"GO_LIBRE_LOG_LEVEL"`
	LogFormat string    `yaml:"logFormat" env:"GO_LIBRE_LOG_FORMAT"`
	Api       ApiConfig `yaml:"api"`
	DBPath    string    `yaml:"dbPath" env:"GO_LIBRE_DB_PATH"`
	filepath  string
}

func (c *Config) Path() string {
	return c.filepath
}

func (c *Config) SetPath(path string) {
	c.filepath = path
}

// ApiAddr is the host:port the scan service listens on
func (c *Config) ApiAddr() string {
	return fmt.Sprintf("%s:%d", c.Api.Address, c.Api.Port)
}

func (c *Config) Persist(overwrite bool) error {
	if _, err := os.Stat(c.filepath); err == nil && !overwrite {
		return ErrConfigFileExists{Path: c.filepath}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.filepath)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return errors.Wrapf(err, "creating config dir %s", dir)
	}

	err = os.WriteFile(c.filepath, data, 0644)
	if err != nil {
		return errors.Wrapf(err, "writing config %s", c.filepath)
	}

	return nil
}

// Load reads the config file when it exists and then applies GO_LIBRE_* environment variables
func (c *Config) Load() error {
	data, err := os.ReadFile(c.filepath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, c); err != nil {
			return errors.Wrapf(err, "parsing config %s", c.filepath)
		}
	case os.IsNotExist(err):
		log.Debug("Config file %s not found, using defaults", c.filepath)
	default:
		return errors.Wrapf(err, "reading config %s", c.filepath)
	}

	if err := cleanenv.ReadEnv(c); err != nil {
		return errors.Wrap(err, "reading environment")
	}
	return nil
}

func (c *Config) Validate() error {
	if err := log.ValidateLevel(c.LogLevel); err != nil {
		return err
	}
	if err := log.ValidateFormat(c.LogFormat); err != nil {
		return err
	}
	if c.Api.Port <= 0 || c.Api.Port > 65535 {
		return ErrInvalidPort{Port: c.Api.Port}
	}
	return nil
}

func configHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return filepath.Join(home, ConfigDir)
}

func DefaultConfigPath() string {
	return filepath.Join(configHome(), ConfigFile)
}

func DefaultDBPath() string {
	return filepath.Join(configHome(), DBFile)
}

func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
		Api: ApiConfig{
			Address: DefaultApiAddress,
			Port:    DefaultApiPort,
		},
		DBPath:   DefaultDBPath(),
		filepath: DefaultConfigPath(),
	}
}
