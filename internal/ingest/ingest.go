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

// Package ingest loads bulk tax-lot and price data at the edge of the
// engine, the way data/fred.go and data/tiingo.go load market data: through
// dataframe-go's CSV importer, converted to typed oracletypes values at the
// package boundary so nothing downstream ever touches a *dataframe.DataFrame.
package ingest

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rocketlaunchr/dataframe-go"
	"github.com/rocketlaunchr/dataframe-go/imports"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// LotColumns names the CSV header this package expects for a tax-lot file:
// lot_id, identifier, account_id, broker, quantity, cost_basis, acquired_date.
var LotColumns = []string{"lot_id", "identifier", "account_id", "broker", "quantity", "cost_basis", "acquired_date"}

// LoadLotsCSV reads a tax-lot CSV from r and converts each row to a
// oracletypes.TaxLot. quantity and cost_basis are parsed as float64;
// acquired_date as RFC3339 or YYYY-MM-DD.
func LoadLotsCSV(r io.Reader) ([]oracletypes.TaxLot, error) {
	df, err := imports.LoadFromCSV(context.Background(), r, imports.CSVLoadOptions{
		DictateDataType: map[string]interface{}{
			"quantity":   float64(0),
			"cost_basis": float64(0),
			"acquired_date": imports.Converter{
				ConcreteType:  time.Time{},
				ConverterFunc: parseDate,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: loading lots csv: %w", err)
	}

	lots := make([]oracletypes.TaxLot, 0, df.NRows())
	for i := 0; i < df.NRows(); i++ {
		lot, err := lotFromRow(df, i)
		if err != nil {
			return nil, fmt.Errorf("ingest: row %d: %w", i, err)
		}
		lots = append(lots, lot)
	}
	return lots, nil
}

func lotFromRow(df *dataframe.DataFrame, row int) (oracletypes.TaxLot, error) {
	lot := oracletypes.TaxLot{}
	for _, series := range df.Series {
		v := series.Value(row)
		switch series.Name() {
		case "lot_id":
			lot.LotID = fmt.Sprintf("%v", v)
		case "identifier":
			lot.Identifier = fmt.Sprintf("%v", v)
		case "account_id":
			lot.AccountID = fmt.Sprintf("%v", v)
		case "broker":
			lot.Broker = fmt.Sprintf("%v", v)
		case "quantity":
			q, ok := v.(float64)
			if !ok {
				return lot, fmt.Errorf("quantity not numeric: %v", v)
			}
			lot.Quantity = q
		case "cost_basis":
			c, ok := v.(float64)
			if !ok {
				return lot, fmt.Errorf("cost_basis not numeric: %v", v)
			}
			lot.CostBasis = c
		case "acquired_date":
			t, ok := v.(time.Time)
			if !ok {
				return lot, fmt.Errorf("acquired_date not a time: %v", v)
			}
			lot.AcquiredDate = t
		}
	}
	return lot, nil
}

// LoadPricesCSV reads a two-column (identifier, price) CSV into a
// oracletypes.PriceBook.
func LoadPricesCSV(r io.Reader) (oracletypes.PriceBook, error) {
	df, err := imports.LoadFromCSV(context.Background(), r, imports.CSVLoadOptions{
		DictateDataType: map[string]interface{}{"price": float64(0)},
	})
	if err != nil {
		return nil, fmt.Errorf("ingest: loading prices csv: %w", err)
	}

	book := make(oracletypes.PriceBook, df.NRows())
	idSeries, priceSeries := df.Series[0], df.Series[1]
	for i := 0; i < df.NRows(); i++ {
		id := fmt.Sprintf("%v", idSeries.Value(i))
		price, ok := priceSeries.Value(i).(float64)
		if !ok {
			return nil, fmt.Errorf("ingest: price row %d not numeric", i)
		}
		book[id] = price
	}
	return book, book.Validate()
}

func parseDate(in interface{}) (interface{}, error) {
	s, ok := in.(string)
	if !ok {
		return nil, fmt.Errorf("expected string date, got %T", in)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return nil, fmt.Errorf("unrecognized date format %q", s)
}
