package models

import (
	"database/sql/driver"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
)

// IntSet is a small set of ints stored as a JSON array in a text column.
type IntSet []int

func (s IntSet) Value() (driver.Value, error) {
	if s == nil {
		s = IntSet{}
	}
	data, err := json.Marshal([]int(s))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return string(data), nil
}

func (s *IntSet) Scan(src interface{}) error {
	if src == nil {
		*s = IntSet{}
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.Errorf("cannot scan %T into IntSet", src)
	}

	if len(data) == 0 {
		*s = IntSet{}
		return nil
	}

	return errors.WithStack(json.Unmarshal(data, (*[]int)(s)))
}

func (s IntSet) Contains(v int) bool {
	for _, n := range s {
		if n == v {
			return true
		}
	}
	return false
}

// Equal reports whether two sets hold the same values in the same order.
func (s IntSet) Equal(other IntSet) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}
