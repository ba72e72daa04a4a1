package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"field_tracker/internal/services"
)

// FlexID accepts an id sent either as a JSON number or as a numeric string.
// Anything else decodes to zero, which never matches a row.
type FlexID uint

func (id *FlexID) UnmarshalJSON(data []byte) error {
	*id = 0
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if n, err := strconv.ParseUint(raw, 10, 0); err == nil {
		*id = FlexID(n)
	}
	return nil
}

// OptionalID is an id the client may leave out. Absent, null, 0 and "" mean
// no choice was made; any other value must be a non-negative integer, given
// as a number or a numeric string.
type OptionalID struct {
	set     bool
	invalid bool
	value   uint
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	*o = OptionalID{}
	raw := string(bytes.TrimSpace(data))
	switch raw {
	case "null", "0", `""`:
		return nil
	}
	o.set = true
	n, err := strconv.ParseUint(strings.TrimSpace(strings.Trim(raw, `"`)), 10, 0)
	if err != nil {
		o.invalid = true
		return nil
	}
	o.value = uint(n)
	return nil
}

// Value returns the id, nil when none was given, or a ValidationError
// naming field when the client sent something that is not an id.
func (o OptionalID) Value(field string) (*uint, error) {
	if o.invalid {
		return nil, &services.ValidationError{Fields: map[string]string{field: "must be an integer id"}}
	}
	if !o.set {
		return nil, nil
	}
	id := o.value
	return &id, nil
}

// FlexFloat accepts a JSON number or a string holding one.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(strings.Trim(string(bytes.TrimSpace(data)), `"`))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%s is not a number", data)
	}
	*f = FlexFloat(v)
	return nil
}

// FlexString accepts a string or a bare JSON number.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = FlexString(num.String())
	return nil
}

// DeviceCredentials are present in the body of every authenticated device call.
type DeviceCredentials struct {
	CID  FlexID `json:"cid"`
	CKey string `json:"ckey"`
}

// GeoPoint is the {lat, long} pair of a location update.
type GeoPoint struct {
	Lat  *FlexFloat `json:"lat"`
	Long *FlexFloat `json:"long"`
}

func (g GeoPoint) Input() services.LocationInput {
	return services.LocationInput{Latitude: g.Lat.float(), Longitude: g.Long.float()}
}

func (f *FlexFloat) float() *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}

type LocationRequest struct {
	Geo *GeoPoint `json:"geo"`
}

type ProfileRequest struct {
	ProfileID OptionalID `json:"profile_id"`
}

type LogoutRequest struct {
	Password string `json:"pwd"`
}

type TaskRequest struct {
	TaskID FlexString `json:"task_id"`
	Status string     `json:"status"`
}
