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

package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/lestrrat-go/jwx/jwk"
)

// SetupRoutes mirrors router.SetupRoutes: one versioned group, one
// ping route, and the trade/withdrawal routes behind auth.
func SetupRoutes(app *fiber.App, jwks *jwk.AutoRefresh, jwksURL string) {
	api := app.Group("/v1", logger.New())
	api.Get("/", Ping)

	accounts := api.Group("/accounts")
	accounts.Post("/:id/trades", Auth(jwks, jwksURL), ComputeTrades)
	accounts.Post("/:id/withdrawal", Auth(jwks, jwksURL), ComputeWithdrawal)
}
