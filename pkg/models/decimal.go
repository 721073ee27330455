package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Value implements driver.Valuer so a NullDecimal round-trips through
// lib/pq the same way shopspring's own Decimal does.
func (d NullDecimal) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Decimal.String(), nil
}

// Scan implements sql.Scanner, tolerating NULL and the handful of wire
// shapes Postgres drivers hand back for numeric columns.
func (d *NullDecimal) Scan(value interface{}) error {
	if value == nil {
		d.Valid = false
		d.Decimal = decimal.Decimal{}
		return nil
	}

	switch v := value.(type) {
	case []byte:
		dec, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("scan NullDecimal from []byte: %w", err)
		}
		d.Decimal = dec
	case string:
		dec, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("scan NullDecimal from string: %w", err)
		}
		d.Decimal = dec
	case float64:
		d.Decimal = decimal.NewFromFloat(v)
	case int64:
		d.Decimal = decimal.NewFromInt(v)
	default:
		return fmt.Errorf("cannot scan NullDecimal from %T", value)
	}
	d.Valid = true
	return nil
}
