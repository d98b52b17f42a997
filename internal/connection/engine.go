// Package connection turns flat, environment-shaped configuration into
// per-catalog connection descriptors and opens database handles from them.
// A descriptor records which credential strategy its catalog uses: a stored
// secret referenced by a ${name} placeholder, an IAM authentication token
// spliced over a password=%s marker, or no injected credential at all.
package connection

import (
	"strings"

	dberrors "github.com/systmms/dbmux/internal/errors"
)

// Engine identifies the database engine behind a catalog.
type Engine string

// Supported engines. Aliases accepted in connection strings normalize onto
// these (postgresql → postgres).
const (
	EngineMySQL    Engine = "mysql"
	EngineMariaDB  Engine = "mariadb"
	EnginePostgres Engine = "postgres"
	EngineRedshift Engine = "redshift"
)

// driverMap maps an engine to its database/sql driver.
var driverMap = map[Engine]string{
	EnginePostgres: "postgres",
	EngineRedshift: "postgres", // redshift speaks the postgres wire protocol
	EngineMySQL:    "mysql",
	EngineMariaDB:  "mysql",
}

var engineAliases = map[string]Engine{
	"postgresql": EnginePostgres,
}

// ParseEngine resolves a connection-string scheme to an engine,
// case-insensitively. Unknown engines are a configuration error.
func ParseEngine(s string) (Engine, error) {
	name := strings.ToLower(s)
	if engine, ok := engineAliases[name]; ok {
		return engine, nil
	}
	engine := Engine(name)
	if _, ok := driverMap[engine]; !ok {
		return "", dberrors.ConfigError{
			Field:      "engine",
			Value:      s,
			Message:    "unsupported database engine",
			Suggestion: "Supported engines: mysql, mariadb, postgres, postgresql, redshift",
		}
	}
	return engine, nil
}

// DriverName returns the database/sql driver registered for the engine.
func (e Engine) DriverName() string {
	return driverMap[e]
}

func (e Engine) String() string {
	return string(e)
}
