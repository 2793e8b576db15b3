package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// FlexFloat handles JSON values that may be either a number or a string.
// The remote API quotes most numerics ("0.0945") and uses "n/a" or empty
// strings for missing values, which decode to NaN.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = FlexFloat(math.NaN())
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = FlexFloat(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = FlexFloat(math.NaN())
			return nil
		}
		*f = FlexFloat(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// MarshalJSON emits null for the NaN missing-value marker, which encoding/json
// cannot represent as a number.
func (f FlexFloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// Float returns the underlying value.
func (f FlexFloat) Float() float64 {
	return float64(f)
}

// Missing reports whether f carries the missing-value marker.
func (f FlexFloat) Missing() bool {
	return math.IsNaN(float64(f))
}
