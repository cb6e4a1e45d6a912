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

// Package httpapi exposes account.ComputeOptimalTrades and
// account.ComputeMaxWithdrawal over fiber, the "equivalent structured
// transport" spec.md §6 allows alongside the stdin/stdout CLI path. Auth
// mirrors middleware/auth.go and jwks/jwks.go: a JWKS-verified JWT guards
// every route.
package httpapi

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/jdfergason/jwt/v2"
	"github.com/lestrrat-go/jwx/jwk"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/rs/zerolog/log"
)

// SetupJWKS fetches and auto-refreshes the JSON Web Key Set published at
// https://<domain>/.well-known/jwks.json, exactly as jwks.SetupJWKS does.
func SetupJWKS(domain string) (*jwk.AutoRefresh, string) {
	jwksURL := fmt.Sprintf("https://%s/.well-known/jwks.json", domain)

	log.Debug().Str("url", jwksURL).Msg("reading jwks")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ar := jwk.NewAutoRefresh(ctx)
	ar.Configure(jwksURL)
	ar.Fetch(ctx, jwksURL)

	return ar, jwksURL
}

// Auth builds the fiber middleware that verifies a bearer JWT against jwks
// and stores the subject claim in c.Locals("accountID").
func Auth(jwks *jwk.AutoRefresh, jwksURL string) fiber.Handler {
	jwtMiddleware := jwtware.New(jwtware.Config{
		Jwks:         jwks,
		JwksUrl:      jwksURL,
		ErrorHandler: jwtError,
		SuccessHandler: func(c *fiber.Ctx) error {
			return nil
		},
	})

	return func(c *fiber.Ctx) error {
		if res := jwtMiddleware(c); res != nil {
			return c.SendString(res.Error())
		}
		token := c.Locals("user").(jwt.Token)
		c.Locals("accountID", token.Subject())
		return c.Next()
	}
}

func jwtError(c *fiber.Ctx, err error) error {
	log.Warn().Err(err).Msg("jwt authentication error")

	if err.Error() == "Missing or malformed JWT" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"status": "error", "message": "Missing or malformed JWT", "data": nil})
	}
	return c.Status(fiber.StatusUnauthorized).
		JSON(fiber.Map{"status": "error", "message": "Invalid or expired JWT", "data": nil})
}
