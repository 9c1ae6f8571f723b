// internal/models/location.go
package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UnmarshalJSON accepts both {"lat","lng"} and {"latitude","longitude"}.
func (l *LatLng) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat       *float64 `json:"lat"`
		Lng       *float64 `json:"lng"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	lat, lng := raw.Lat, raw.Lng
	if lat == nil {
		lat = raw.Latitude
	}
	if lng == nil {
		lng = raw.Longitude
	}
	if lat == nil || lng == nil {
		return fmt.Errorf("location needs lat/lng or latitude/longitude")
	}
	if *lat < -90 || *lat > 90 || *lng < -180 || *lng > 180 {
		return fmt.Errorf("location out of range: %v,%v", *lat, *lng)
	}

	l.Lat, l.Lng = *lat, *lng
	return nil
}

// String renders the pair as "lat,lng", the form used in prompts.
func (l LatLng) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

// ParseLocation decodes a JSON location payload. Empty or unreadable input
// yields nil: a missing origin only disables location bias.
func ParseLocation(raw string) *LatLng {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil
	}
	var l LatLng
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil
	}
	return &l
}
