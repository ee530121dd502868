package models

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

// WeatherQuery is a validated temperature query. Immutable once it leaves
// the validation package.
type WeatherQuery struct {
	Location string `json:"location"`
	Date     string `json:"date"`
}

// Fingerprint returns the cache key for the query: the hex MD5 digest of
// the lowercased location concatenated with the date. Two queries differing
// only in location case share a fingerprint; the date participates verbatim.
func (q WeatherQuery) Fingerprint() string {
	sum := md5.Sum([]byte(strings.ToLower(q.Location) + q.Date))
	return hex.EncodeToString(sum[:])
}

// Reading is a fully populated temperature reading. Both fields are always
// set once a Reading leaves the weather client or the cache.
type Reading struct {
	Celsius    float64 `json:"celsius"`
	Fahrenheit float64 `json:"fahrenheit"`
}
