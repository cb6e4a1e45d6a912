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
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/penny-vault/tax-oracle/internal/account"
)

// Ping reports liveness, the way handler.Ping does.
func Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "success", "message": "tax-oracle is alive"})
}

// ComputeTrades handles POST /v1/accounts/:id/trades: decodes the spec.md
// §6 request envelope, runs the same account.ComputeOptimalTrades entry
// point the CLI uses, and returns the response envelope.
func ComputeTrades(c *fiber.Ctx) error {
	var req account.Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		log.Warn().Err(err).Msg("could not decode trade request")
		return fiber.ErrBadRequest
	}

	resp, err := account.ComputeOptimalTrades(req)
	if err != nil {
		log.Warn().Err(err).Str("allocationID", req.AllocationID).Msg("compute trades failed")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}

	return c.JSON(resp)
}

// ComputeWithdrawal handles POST /v1/accounts/:id/withdrawal: binary
// searches the max withdrawal for one strategy within the request.
func ComputeWithdrawal(c *fiber.Ctx) error {
	var body struct {
		Request  account.Request               `json:"request"`
		Settings account.MaxWithdrawalSettings `json:"settings"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		log.Warn().Err(err).Msg("could not decode withdrawal request")
		return fiber.ErrBadRequest
	}

	result, err := account.ComputeMaxWithdrawal(body.Request, body.Settings)
	if err != nil {
		log.Warn().Err(err).Str("strategyID", body.Settings.StrategyID).Msg("compute max withdrawal failed")
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"status":  "error",
			"message": err.Error(),
		})
	}

	return c.JSON(result)
}
