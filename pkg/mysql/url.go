package mysql

import (
	"errors"
	"net"
	"net/url"
	"strings"

	gomysql "github.com/go-sql-driver/mysql"
)

// ParseURL accepts either a mysql:// URL as stored in tenant metadata or a
// native driver DSN (user:pass@tcp(host:3306)/db). Query parameters are
// passed to the driver unchanged. parseTime defaults to true in both forms
// unless the input sets it.
func ParseURL(raw string) (*gomysql.Config, error) {
	if raw == "" {
		return nil, ErrEmptyURL
	}
	if !strings.Contains(raw, "://") {
		cfg, err := gomysql.ParseDSN(raw)
		if err != nil {
			return nil, errors.Join(ErrInvalidURL, err)
		}
		if !strings.Contains(raw, "parseTime=") {
			cfg.ParseTime = true
		}
		return cfg, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if u.Scheme != "mysql" && u.Scheme != "mariadb" {
		return nil, errors.Join(ErrInvalidURL, errors.New("unexpected scheme "+u.Scheme))
	}
	if u.Hostname() == "" {
		return nil, errors.Join(ErrInvalidURL, errors.New("missing host"))
	}

	base := gomysql.NewConfig()
	base.Net = "tcp"
	base.Addr = u.Host
	if u.Port() == "" {
		base.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	if u.User != nil {
		base.User = u.User.Username()
		base.Passwd, _ = u.User.Password()
	}
	base.DBName = strings.TrimPrefix(u.Path, "/")

	dsn := base.FormatDSN()
	if u.RawQuery != "" {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + u.RawQuery
	}

	cfg, err := gomysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	if !u.Query().Has("parseTime") {
		cfg.ParseTime = true
	}
	return cfg, nil
}
