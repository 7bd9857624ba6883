package models

// Geolocation is the canonical shape stored per IP. Country is "Local" for
// private and loopback addresses and "Unknown" when the upstream lookup
// fails; the scorer treats both specially.
type Geolocation struct {
	Country string `json:"country"`
	Region  string `json:"region"`
	City    string `json:"city"`
}

const (
	GeoUnknown = "Unknown"
	GeoLocal   = "Local"
)
