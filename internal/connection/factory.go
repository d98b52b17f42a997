package connection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq" // postgres and redshift driver

	dberrors "github.com/systmms/dbmux/internal/errors"
	"github.com/systmms/dbmux/internal/logging"
	"github.com/systmms/dbmux/pkg/credential"
	"github.com/systmms/dbmux/pkg/identity"
)

// Opener opens a database handle for a driver name and DSN. Tests swap it
// for a sqlmock-backed opener.
type Opener func(driverName, dsn string) (*sql.DB, error)

// Factory resolves a catalog descriptor plus caller identity into a driver
// DSN, and opens connections from it. Credential values are obtained through
// the credential sources at connect time and spliced into the configured
// connection string; the factory holds no credential state of its own.
type Factory struct {
	secrets   credential.SecretSource
	passwords credential.PasswordSource
	open      Opener
	logger    *logging.Logger
}

// FactoryOption is a functional option for configuring a Factory
type FactoryOption func(*Factory)

// WithFactoryOpener sets a custom database opener (for testing)
func WithFactoryOpener(open Opener) FactoryOption {
	return func(f *Factory) {
		f.open = open
	}
}

// WithFactoryLogger sets the logger used by the factory
func WithFactoryLogger(logger *logging.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// NewFactory creates a connection factory. Either source may be nil when no
// catalog uses that strategy; connecting to a catalog that needs the missing
// source is an error.
func NewFactory(secrets credential.SecretSource, passwords credential.PasswordSource, opts ...FactoryOption) *Factory {
	f := &Factory{
		secrets:   secrets,
		passwords: passwords,
		open:      sql.Open,
		logger:    logging.New(false, true),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// secretCredentials is the JSON document stored-secret catalogs keep in the
// secret store.
type secretCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// DSN resolves the catalog's credential for the caller and renders the
// driver-native DSN.
func (f *Factory) DSN(ctx context.Context, desc Descriptor, caller identity.Caller) (string, error) {
	credentialed, err := f.spliceCredential(ctx, desc, caller)
	if err != nil {
		return "", err
	}
	return dsnFromJDBC(desc.Engine, credentialed)
}

// Connect resolves credentials, opens the catalog's database and verifies
// the connection with a ping. The caller owns the returned handle.
func (f *Factory) Connect(ctx context.Context, desc Descriptor, caller identity.Caller) (*sql.DB, error) {
	dsn, err := f.DSN(ctx, desc, caller)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("opening %s connection for catalog '%s': %s", desc.Engine, desc.Catalog, logging.RedactDSN(dsn))

	db, err := f.open(desc.Engine.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection for catalog '%s': %w", desc.Catalog, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to catalog '%s': %w", desc.Catalog, err)
	}
	return db, nil
}

func (f *Factory) spliceCredential(ctx context.Context, desc Descriptor, caller identity.Caller) (string, error) {
	switch {
	case desc.HasSecret():
		if f.secrets == nil {
			return "", errors.New("catalog requires a secret source but none is configured")
		}
		raw, err := f.secrets.ResolveSecret(ctx, desc.SecretName, caller)
		if err != nil {
			return "", err
		}
		var creds secretCredentials
		if err := json.Unmarshal([]byte(raw), &creds); err != nil {
			return "", dberrors.CredentialError{Operation: "parse secret", Resource: desc.SecretName, Err: err}
		}
		replacement := fmt.Sprintf("user=%s&password=%s",
			url.QueryEscape(creds.Username), url.QueryEscape(creds.Password))
		return secretPattern.ReplaceAllLiteralString(desc.ConnectionString, replacement), nil

	case desc.IAMAuth:
		if f.passwords == nil {
			return "", errors.New("catalog requires a password source but none is configured")
		}
		token, err := f.passwords.ResolvePassword(ctx, desc.Username, desc.Endpoint, desc.Port, caller)
		if err != nil {
			return "", err
		}
		// Generated tokens carry '&' and '=' and must be escaped to stay a
		// single query parameter.
		return strings.Replace(desc.ConnectionString, "password=%s", "password="+url.QueryEscape(token), 1), nil

	default:
		return desc.ConnectionString, nil
	}
}

var jdbcPrefixPattern = regexp.MustCompile(`^jdbc:(?:\w+://)?`)

// dsnFromJDBC translates the credentialed, JDBC-shaped connection part into
// the DSN format the engine's driver expects.
func dsnFromJDBC(engine Engine, credentialed string) (string, error) {
	rest := jdbcPrefixPattern.ReplaceAllString(credentialed, "")

	switch engine {
	case EnginePostgres, EngineRedshift:
		// lib/pq takes URL DSNs; user and password ride as query parameters.
		return "postgres://" + rest, nil
	case EngineMySQL, EngineMariaDB:
		return mysqlDSN(rest)
	default:
		return "", dberrors.ConfigError{
			Field:   "engine",
			Value:   engine.String(),
			Message: "no DSN builder for engine",
		}
	}
}

// mysqlDSN rebuilds host:port/db?user=...&password=... into the
// user:pass@tcp(host:port)/db form the mysql driver expects.
func mysqlDSN(rest string) (string, error) {
	u, err := url.Parse("mysql://" + rest)
	if err != nil {
		return "", dberrors.ConfigError{
			Field:   "connection_string",
			Value:   rest,
			Message: "cannot parse connection string: " + err.Error(),
		}
	}

	query := u.Query()
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = u.Host
	cfg.DBName = strings.TrimPrefix(u.Path, "/")
	cfg.User = query.Get("user")
	cfg.Passwd = query.Get("password")
	query.Del("user")
	query.Del("password")

	if len(query) > 0 {
		cfg.Params = make(map[string]string, len(query))
		for key, values := range query {
			if len(values) > 0 {
				cfg.Params[key] = values[0]
			}
		}
	}

	return cfg.FormatDSN(), nil
}
