// internal/requestinfo/requestinfo.go
//
// Per-request metadata: user-agent fingerprint and IP geolocation.
//
// Context
// -------
// The moderation workflow wants to know who is submitting links: browser
// family, whether the client is a known crawler, and a coarse country hint.
// This package collects those attributes once per request and parks them in
// the request context.  The structs are inert — no DB handles, no large
// buffers — so they are safe to log or JSON-encode.
//
// Dependencies
// • github.com/avct/uasurfer          (UA parsing)
// • github.com/oschwald/geoip2-golang (MaxMind lookup, optional)
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

//
// Struct definitions
//

// UA carries the user-agent attributes used by logging and the submission
// bot gate.
type UA struct {
	Raw     string
	Browser string
	Version string
	OS      string
	Device  string // "Desktop", "Mobile", "Tablet", or "Other"
	IsBot   bool
}

// Geo holds best-effort IP geolocation hints; empty when no GeoLite2
// database is configured or the address has no match.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// Info is stored in the request context by Enrich.
type Info struct {
	UA        UA
	Geo       Geo
	Timestamp time.Time
}

//
// Package-level state
//

// geoReader is a singleton MaxMind handle; safe for concurrent reads, which
// is all we ever perform.  nil means geolocation is disabled.
var geoReader *geoip2.Reader

// InitGeo opens the GeoLite2 database at startup.  An empty path leaves
// geolocation disabled; an unreadable file is an error so a misconfigured
// path doesn't silently drop the feature.
func InitGeo(dbPath string) error {
	if dbPath == "" {
		return nil
	}
	var err error
	geoReader, err = geoip2.Open(dbPath)
	return err
}

type ctxKey struct{} // unexported, collision-proof

// FromContext returns the pointer previously stored by Enrich, or nil when
// the middleware has not run.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

//
// Middleware
//

// Enrich wraps an http.Handler, attaches *Info, and forwards.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		info := &Info{
			UA:        parseUA(r.UserAgent()),
			Geo:       lookupGeo(ip),
			Timestamp: time.Now().UTC(),
		}

		zap.S().Debugw("request info",
			"ip", info.Geo.IP,
			"country", info.Geo.CountryISO,
			"browser", info.UA.Browser,
			"device", info.UA.Device,
			"bot", info.UA.IsBot,
			"path", r.URL.Path,
		)

		ctx := context.WithValue(r.Context(), ctxKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

//
// Internal helpers
//

// clientIP extracts the left-most address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}

// parseUA converts a raw header into our UA struct using uasurfer.
func parseUA(raw string) UA {
	ua := surfer.Parse(raw)

	info := UA{
		Raw:     raw,
		Browser: strings.TrimPrefix(ua.Browser.Name.String(), "Browser"),
		Version: versionToString(ua.Browser.Version),
		OS:      strings.TrimPrefix(ua.OS.Name.String(), "OS"),
		IsBot:   ua.IsBot(),
	}

	switch ua.DeviceType {
	case surfer.DeviceComputer:
		info.Device = "Desktop"
	case surfer.DeviceTablet:
		info.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}
	return info
}

// versionToString renders a version in dotted form while trimming trailing
// zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	}
	if v.Minor != 0 {
		return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor)
	}
	return strconv.Itoa(v.Major)
}

// lookupGeo resolves country and city for ip; empty on any failure.
func lookupGeo(ip net.IP) Geo {
	g := Geo{IP: ip}
	if geoReader == nil || ip == nil {
		return g
	}
	rec, err := geoReader.City(ip)
	if err != nil || rec == nil {
		return g
	}
	g.CountryISO = rec.Country.IsoCode
	g.City = rec.City.Names["en"]
	return g
}
