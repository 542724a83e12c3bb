// Package geo resolves public IP addresses to a country and city using a
// local MaxMind database. Without a database every lookup misses.
package geo

import (
	"log/slog"
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
)

type Location struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	City        string  `json:"city,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

type Resolver struct {
	db    *geoip2.Reader
	cache sync.Map // ip -> Location
}

// NewResolver opens the database at dbPath. An empty path or unreadable
// database yields a resolver that never finds anything.
func NewResolver(dbPath string, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{}
	if dbPath == "" {
		return r
	}
	db, err := geoip2.Open(dbPath)
	if err != nil {
		logger.Warn("ERROR opening GeoIP database, lookups disabled", "path", dbPath, "error", err)
		return r
	}
	r.db = db
	logger.Info("SUCCESS GeoIP database loaded", "path", dbPath)
	return r
}

// Enabled reports whether a database is loaded.
func (r *Resolver) Enabled() bool {
	return r != nil && r.db != nil
}

func (r *Resolver) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Lookup is safe on a nil resolver. Private, loopback and unparsable
// addresses are never looked up.
func (r *Resolver) Lookup(ipStr string) (Location, bool) {
	if !r.Enabled() {
		return Location{}, false
	}
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() {
		return Location{}, false
	}

	if v, ok := r.cache.Load(ipStr); ok {
		return v.(Location), true
	}

	record, err := r.db.City(ip)
	if err != nil || record.Country.IsoCode == "" {
		return Location{}, false
	}
	loc := Location{
		Country:     record.Country.Names["en"],
		CountryCode: record.Country.IsoCode,
		City:        record.City.Names["en"],
		Lat:         record.Location.Latitude,
		Lon:         record.Location.Longitude,
	}
	r.cache.Store(ipStr, loc)
	return loc, true
}
