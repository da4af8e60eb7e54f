// internal/config/model.go
//
// Typed configuration model for Waypost.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                           – dotenv values,
//   • `conf/global.yaml`                        – primary static file,
//   • `WAYPOST_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *after* unmarshalling, so secrets such as the
// admin password hash never live in flat files or git history.
//
// The original program kept the submission switch and admin credentials in
// process-wide mutable state; here they are plain config handed to the
// router at construction.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database holds the catalog-store DSN.  The DSN may carry a `vault:`
// reference for the password portion; it is resolved before use.  Add
// `parseTime=true` so DATETIME columns scan into time.Time.
type Database struct {
	DSN string `koanf:"dsn" validate:"required"`
}

//
// Auth section
//

// Auth configures the single trusted admin and the session window.
// PasswordHash is a bcrypt hash, typically a `vault:` reference.
// SessionTTLHours defaults to 12 when unset.
type Auth struct {
	AdminUser       string `koanf:"admin_user"    validate:"required"`
	PasswordHash    string `koanf:"password_hash" validate:"required"`
	SessionTTLHours int    `koanf:"session_ttl_hours"`
}

//
// Features section
//

// Features gates optional behavior.  AllowSubmissions opens the public
// moderation-queue endpoint; when false, submissions get 403 before any
// validation runs.
type Features struct {
	AllowSubmissions bool `koanf:"allow_submissions"`
}

//
// Geo section
//

// Geo points at an optional GeoLite2 database used to tag public
// submissions with a country in the moderation log.  Empty path disables
// the lookup entirely.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or WAYPOST_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // WAYPOST_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Auth     Auth     `koanf:"auth"`
	Features Features `koanf:"features"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
