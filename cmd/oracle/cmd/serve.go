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

package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/tax-oracle/internal/httpapi"
)

func init() {
	serveCmd.Flags().IntP("port", "p", 3000, "Port to run the HTTP server on")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))

	serveCmd.Flags().String("auth0-domain", "", "Auth0 domain to fetch the JWKS from")
	viper.BindPFlag("auth0.domain", serveCmd.Flags().Lookup("auth0-domain"))

	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tax-oracle HTTP server",
	Long:  `Runs a long-lived fiber process exposing POST /v1/accounts/:id/trades and /withdrawal over JWT-authenticated HTTP, for collaborators that prefer a warm server over a cold CLI invocation.`,
	Run: func(cmd *cobra.Command, args []string) {
		app := fiber.New()

		app.Use(cors.New(cors.Config{
			AllowMethods: "GET,POST",
		}))

		jwks, jwksURL := httpapi.SetupJWKS(cfg.Auth0Domain)
		httpapi.SetupRoutes(app, jwks, jwksURL)

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c
			fmt.Printf("received signal: %s; shutting down\n", sig.String())
			if err := app.Shutdown(); err != nil {
				log.Fatal().Err(err).Msg("app shutdown failed")
			}
		}()

		if err := app.Listen(fmt.Sprintf(":%d", cfg.ServerPort)); err != nil {
			log.Fatal().Err(err).Msg("app.Listen returned an error")
		}
	},
}
