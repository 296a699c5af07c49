package config

import (
	"fmt"
	"net/url"
)

// DSN returns the connection string for the configured database.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}

	switch d.Type {
	case "postgres":
		return buildPostgresDSN(d)
	default:
		return d.DatabasePath
	}
}

func buildPostgresDSN(d DatabaseConfig) string {
	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   "/" + d.Database,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.Username, d.Password)
	} else if d.Username != "" {
		u.User = url.User(d.Username)
	}

	q := u.Query()
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	q.Set("TimeZone", "UTC")
	u.RawQuery = q.Encode()

	return u.String()
}
