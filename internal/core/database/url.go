package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// ParseURL turns a DATABASE_URL into a gorm driver name and DSN.
//
//	sqlite:///./ims.db        -> sqlite, ./ims.db
//	sqlite:////var/ims.db     -> sqlite, /var/ims.db
//	sqlite:// | sqlite:///:memory: -> sqlite, :memory:
//	postgres://u:p@h:5432/db  -> postgres, unchanged
//	mysql://u:p@h:3306/db     -> mysql, u:p@tcp(h:3306)/db?...
func ParseURL(raw string) (driver, dsn string, err error) {
	raw = strings.TrimSpace(raw)
	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return "", "", fmt.Errorf("%w: %q is not a url", ErrUnsupportedDriver, raw)
	}
	switch strings.ToLower(scheme) {
	case "sqlite", "sqlite3":
		path := strings.TrimPrefix(rest, "/")
		if path == "" || path == ":memory:" {
			return "sqlite", ":memory:", nil
		}
		return "sqlite", path, nil
	case "postgres", "postgresql":
		if _, err := pgconn.ParseConfig(raw); err != nil {
			return "", "", fmt.Errorf("parse postgres url: %w", err)
		}
		return "postgres", raw, nil
	case "mysql", "mysql+pymysql":
		return "mysql", normalizeMySQLDSN("mysql://"+rest, "", ""), nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, scheme)
	}
}

// normalizeMySQLDSN accepts go-sql-driver DSNs unchanged and rewrites
// mysql:// and jdbc:mysql:// URLs into them. Non-empty overrides replace
// the credentials.
func normalizeMySQLDSN(input, userOverride, passOverride string) string {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if !strings.HasPrefix(in, "mysql://") {
		if userOverride == "" && passOverride == "" {
			return in
		}
		cfg, err := mysqldriver.ParseDSN(in)
		if err != nil {
			return in
		}
		applyCreds(cfg, userOverride, passOverride)
		return cfg.FormatDSN()
	}

	u, err := url.Parse(in)
	if err != nil {
		return in
	}
	cfg := mysqldriver.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.ParseTime = true
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()
	}

	q := u.Query()
	if v := q.Get("user"); v != "" {
		cfg.User = v
	}
	if v := q.Get("password"); v != "" {
		cfg.Passwd = v
	}
	applyCreds(cfg, userOverride, passOverride)

	charset := q.Get("charset")
	if charset == "" {
		charset = q.Get("characterEncoding")
	}
	if charset == "" {
		charset = "utf8mb4"
	}
	cfg.Params = map[string]string{"charset": charset}

	switch strings.ToLower(q.Get("useSSL") + q.Get("tls")) {
	case "true", "1":
		cfg.TLSConfig = "true"
	case "skip-verify":
		cfg.TLSConfig = "skip-verify"
	case "preferred":
		cfg.TLSConfig = "preferred"
	}
	tz := q.Get("serverTimezone")
	if tz == "" {
		tz = q.Get("loc")
	}
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			cfg.Loc = loc
		}
	}
	return cfg.FormatDSN()
}

func applyCreds(cfg *mysqldriver.Config, user, pass string) {
	if user != "" {
		cfg.User = user
	}
	if pass != "" {
		cfg.Passwd = pass
	}
}

// maskDSN hides the password of url-style and go-sql-driver DSNs.
func maskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil {
		if _, has := u.User.Password(); has {
			u.User = url.UserPassword(u.User.Username(), "****")
			return u.String()
		}
		return dsn
	}
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		if colon := strings.Index(dsn[:at], ":"); colon > 0 {
			return dsn[:colon+1] + "****" + dsn[at:]
		}
	}
	return dsn
}
