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

// Package store is an optional Postgres-backed source for account state
// (lots and prices), an alternative to supplying the full JSON
// request body, the way database/database.go wraps a pgxpool.Pool. It is
// read-only with respect to the solve itself: nothing here ever caches
// solver output, only sources input (spec.md §9's "the core has no
// caches").
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgsql"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// Store wraps a Postgres connection pool used to source account snapshots.
type Store struct {
	pool *pgxpool.Pool
}

// Connect opens a pool against dsn and verifies it with a ping, the way
// database.Connect does.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool's connections.
func (s *Store) Close() { s.pool.Close() }

// LoadLots returns every open tax lot for accountID, oldest first.
func (s *Store) LoadLots(ctx context.Context, accountID string) ([]oracletypes.TaxLot, error) {
	stmt := &pgsql.SelectStatement{}
	for _, f := range []string{"lot_id", "identifier", "account_id", "broker", "quantity", "cost_basis", "acquired_date"} {
		stmt.Select(f)
	}
	stmt.From(pgx.Identifier{"tax_lots"}.Sanitize())
	stmt.Where("account_id = ?", accountID)
	stmt.Order("acquired_date ASC")

	sql, args := pgsql.Build(stmt)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store: querying lots for %s: %w", accountID, err)
	}
	defer rows.Close()

	lots := make([]oracletypes.TaxLot, 0)
	for rows.Next() {
		var l oracletypes.TaxLot
		if err := rows.Scan(&l.LotID, &l.Identifier, &l.AccountID, &l.Broker, &l.Quantity, &l.CostBasis, &l.AcquiredDate); err != nil {
			return nil, fmt.Errorf("store: scanning lot row: %w", err)
		}
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

// LoadPrices returns the latest known price for every identifier in ids.
func (s *Store) LoadPrices(ctx context.Context, ids []string) (oracletypes.PriceBook, error) {
	stmt := &pgsql.SelectStatement{}
	stmt.Select("identifier")
	stmt.Select("price")
	stmt.From(pgx.Identifier{"latest_prices"}.Sanitize())
	stmt.Where("identifier = any(?)", ids)

	sql, args := pgsql.Build(stmt)

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("store: querying prices: %w", err)
	}
	defer rows.Close()

	book := make(oracletypes.PriceBook)
	for rows.Next() {
		var id string
		var price float64
		if err := rows.Scan(&id, &price); err != nil {
			return nil, fmt.Errorf("store: scanning price row: %w", err)
		}
		book[id] = price
	}
	return book, rows.Err()
}

// SaveClosedLot persists a disposition for future wash-sale derivation.
func (s *Store) SaveClosedLot(ctx context.Context, accountID string, lot oracletypes.ClosedLot) error {
	const sql = `insert into closed_lots
		(account_id, identifier, quantity, cost_basis, date_acquired, date_sold, proceeds, realized_gain)
		values ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, sql, accountID, lot.Identifier, lot.Quantity, lot.CostBasis,
		lot.DateAcquired, lot.DateSold, lot.Proceeds, lot.RealizedGain)
	if err != nil {
		return fmt.Errorf("store: saving closed lot for %s: %w", accountID, err)
	}
	return nil
}
