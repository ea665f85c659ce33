// Package mssql loads tables from Microsoft SQL Server databases.
package mssql

import (
	"fmt"
	"net/url"
	"strconv"

	hostcfg "github.com/fuseline-io/fuseline-engine/pkg/config"
)

// Config contains SQL Server-specific connection options.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string

	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int // seconds
	RowLimit               int // default cap applied when LoadTable is called with limit 0
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// DefaultConnectionTimeout returns the default connection timeout in seconds.
func DefaultConnectionTimeout() int {
	return 30
}

// DefaultRowLimit caps table loads when the caller does not set one.
const DefaultRowLimit = 100000

// FromMap creates a Config from a generic config map.
func FromMap(config map[string]any) (*Config, error) {
	cfg := &Config{
		Port:              DefaultPort(),
		Encrypt:           true,
		ConnectionTimeout: DefaultConnectionTimeout(),
		RowLimit:          DefaultRowLimit,
	}

	if host, ok := config["host"].(string); ok {
		cfg.Host = host
	} else {
		return nil, fmt.Errorf("host is required")
	}

	if port, ok := config["port"].(float64); ok { // JSON numbers are float64
		cfg.Port = int(port)
	} else if port, ok := config["port"].(int); ok {
		cfg.Port = port
	}

	if database, ok := config["database"].(string); ok {
		cfg.Database = database
	} else {
		return nil, fmt.Errorf("database is required")
	}

	if username, ok := config["username"].(string); ok {
		cfg.Username = username
	} else if user, ok := config["user"].(string); ok {
		cfg.Username = user
	} else {
		return nil, fmt.Errorf("username is required")
	}

	if password, ok := config["password"].(string); ok {
		cfg.Password = password
	}

	if encrypt, ok := config["encrypt"].(bool); ok {
		cfg.Encrypt = encrypt
	}
	if trust, ok := config["trust_server_certificate"].(bool); ok {
		cfg.TrustServerCertificate = trust
	}
	if limit, ok := config["row_limit"].(float64); ok && int(limit) > 0 {
		cfg.RowLimit = int(limit)
	} else if limit, ok := config["row_limit"].(int); ok && limit > 0 {
		cfg.RowLimit = limit
	}

	return cfg, nil
}

// buildConnectionString builds a sqlserver:// URL with escaped credentials.
func buildConnectionString(cfg *Config) string {
	query := url.Values{}
	query.Set("database", cfg.Database)
	query.Set("encrypt", strconv.FormatBool(cfg.Encrypt))
	query.Set("TrustServerCertificate", strconv.FormatBool(cfg.TrustServerCertificate))
	query.Set("connection timeout", strconv.Itoa(cfg.ConnectionTimeout))

	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.Username, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", hostcfg.ResolveHostForDocker(cfg.Host), cfg.Port),
		RawQuery: query.Encode(),
	}
	return u.String()
}
