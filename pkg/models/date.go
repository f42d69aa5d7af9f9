package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// LocalDate is a calendar date with no time or zone, stored as a postgres DATE
// and serialized as "2006-01-02".
type LocalDate struct {
	time.Time
}

func NewLocalDate(year int, month time.Month, day int) LocalDate {
	return LocalDate{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return LocalDate{t}, nil
}

func (d LocalDate) String() string {
	return d.Format(dateLayout)
}

func (d LocalDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *LocalDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseLocalDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d *LocalDate) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = NewLocalDate(v.Date())
		return nil
	case string:
		parsed, err := ParseLocalDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into LocalDate", src)
	}
}

func (d LocalDate) Value() (driver.Value, error) {
	return d.String(), nil
}
