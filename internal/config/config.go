// Copyright 2021-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config centralizes the engine's configuration surface behind
// viper, the way database/database.go and common/cache.go read
// viper.GetString/viper.GetBool rather than parsing flags by hand at every
// call site.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config is the resolved set of knobs the CLI and HTTP surface share.
type Config struct {
	CacheDir          string
	TaxArtifactDir    string
	WashSaleWindowDays int
	DatabaseURL       string
	ServerPort        int
	Auth0Domain       string

	LogLevel        string
	LogReportCaller bool
	LogOutput       string
}

func bindDefaults() {
	viper.SetDefault("cache_dir", "/var/cache/tax-oracle")
	viper.SetDefault("wash_sale_window_days", 30)
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("log.level", "warning")
	viper.SetDefault("log.output", "stdout")

	viper.BindEnv("cache_dir", "TAX_ORACLE_CACHE_DIR")
	viper.BindEnv("wash_sale_window_days", "TAX_ORACLE_WASH_SALE_WINDOW_DAYS")
	viper.BindEnv("database.url", "DATABASE_URL")
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("auth0.domain", "AUTH0_DOMAIN")
	viper.BindEnv("log.level", "TAX_ORACLE_LOG_LEVEL")
	viper.BindEnv("log.report_caller", "TAX_ORACLE_LOG_REPORT_CALLER")
	viper.BindEnv("log.output", "TAX_ORACLE_LOG_OUTPUT")
}

// Load reads configuration from environment variables and, if present, a
// "config" file (toml/yaml/json, viper's own search) in /etc/tax-oracle,
// $HOME/.config/tax-oracle or the working directory. A missing config file
// is not an error; every field also has an environment-variable binding.
func Load(configPaths ...string) (Config, error) {
	bindDefaults()

	viper.SetConfigName("config")
	viper.AddConfigPath("/etc/tax-oracle/")
	viper.AddConfigPath("$HOME/.config/tax-oracle")
	for _, p := range configPaths {
		viper.AddConfigPath(p)
	}
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	return Config{
		CacheDir:           viper.GetString("cache_dir"),
		TaxArtifactDir:     viper.GetString("cache_dir") + "/tax_artifacts",
		WashSaleWindowDays: viper.GetInt("wash_sale_window_days"),
		DatabaseURL:        viper.GetString("database.url"),
		ServerPort:         viper.GetInt("server.port"),
		Auth0Domain:        viper.GetString("auth0.domain"),
		LogLevel:           viper.GetString("log.level"),
		LogReportCaller:    viper.GetBool("log.report_caller"),
		LogOutput:          viper.GetString("log.output"),
	}, nil
}
