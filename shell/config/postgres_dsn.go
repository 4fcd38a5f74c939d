package config

import (
	"net"
	"net/url"
	"strconv"
)

// PostgresDSN returns the connection URL for one contact point.
// A contact point is a host, optionally with a port that overrides postgres.port.
func PostgresDSN(settings PostgresSettings, contactPoint string) string {
	host, port := contactPoint, strconv.Itoa(settings.Port)
	if h, p, err := net.SplitHostPort(contactPoint); err == nil {
		host, port = h, p
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(settings.User, settings.Password),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + settings.Database,
		RawQuery: url.Values{"sslmode": {settings.SSLMode}}.Encode(),
	}

	return dsn.String()
}
