package connection

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	dberrors "github.com/systmms/dbmux/internal/errors"
)

// Property key grammar. Catalogs are discovered from connection-string keys;
// role and metadata keys are looked up per catalog, never iterated.
const (
	connectionStringSuffix     = "_connection_string"
	metaConnectionStringSuffix = "_meta_connection_string"
	assumeRoleSuffix           = "_assume_role_arn"
	metaAssumeRoleSuffix       = "_meta_assume_role_arn"

	// DefaultCatalog is the required property holding the fallback
	// connection string for catalogs without one of their own.
	DefaultCatalog = "default"

	// catalogLimit bounds the multiplexing fan-out of a single process.
	catalogLimit = 100
)

var (
	connectionStringPattern = regexp.MustCompile(`([a-zA-Z]+)://(.*)`)
	secretPattern           = regexp.MustCompile(`\$\{([a-zA-Z0-9:/_+=.@-]+)}`)
	iamPasswordPattern      = regexp.MustCompile(`(user=[^&%]+&password=%s)|(password=%s&user=[^&%]+)`)

	// connectionPartsPattern extracts host, port and username from an
	// IAM-auth connection string. The sub-protocol arm is optional: both
	// jdbc:postgresql://host:5432/db?... and the compact
	// jdbc:host:5432/db?... shape parse.
	connectionPartsPattern = regexp.MustCompile(`jdbc:(?:\w+://)?([^:/]+):(\d+)[^?]*\?.*user=([^&]+)`)
)

// Build parses flat properties into per-catalog descriptor pairs. It fails
// on empty properties, a missing default connection string, malformed or
// unsupported connection strings, and more than 100 discovered catalogs.
// No partial result is ever returned. Output is ordered by property key.
func Build(properties map[string]string) ([]DescriptorPair, error) {
	if len(properties) == 0 {
		return nil, dberrors.ConfigError{
			Field:      "properties",
			Message:    "connection properties must not be empty",
			Suggestion: "Provide at least a 'default' connection string",
		}
	}
	if strings.TrimSpace(properties[DefaultCatalog]) == "" {
		return nil, dberrors.ConfigError{
			Field:      DefaultCatalog,
			Message:    "default connection string must be present",
			Suggestion: "Set 'default' to the fallback connection string, e.g. 'postgres://jdbc:host:5432/db?${my-secret}'",
		}
	}

	keys := make([]string, 0, len(properties))
	for key := range properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var pairs []DescriptorPair
	catalogs := 0
	for _, key := range keys {
		var catalog string
		switch {
		case strings.EqualFold(key, DefaultCatalog):
			catalog = DefaultCatalog
		case strings.HasSuffix(key, metaConnectionStringSuffix):
			// Metadata override for some catalog; consumed by lookup below.
			continue
		case strings.HasSuffix(key, connectionStringSuffix):
			catalog = strings.TrimSuffix(key, connectionStringSuffix)
		default:
			// Role ARNs and unrelated properties.
			continue
		}

		primary, err := parseDescriptor(catalog, properties[key], properties[catalog+assumeRoleSuffix])
		if err != nil {
			return nil, err
		}

		// A metadata role without a metadata connection string is ignored.
		metadata := primary
		if metaConn := properties[catalog+metaConnectionStringSuffix]; strings.TrimSpace(metaConn) != "" {
			metadata, err = parseDescriptor(catalog, metaConn, properties[catalog+metaAssumeRoleSuffix])
			if err != nil {
				return nil, err
			}
		}

		pairs = append(pairs, DescriptorPair{Primary: primary, Metadata: metadata})

		catalogs++
		if catalogs > catalogLimit {
			return nil, dberrors.ConfigError{
				Field:      "properties",
				Message:    fmt.Sprintf("too many catalogs multiplexed in one process, max supported is %d", catalogLimit),
				Suggestion: "Split catalogs across multiple connector deployments",
			}
		}
	}

	return pairs, nil
}

func parseDescriptor(catalog, connectionString, roleARN string) (Descriptor, error) {
	m := connectionStringPattern.FindStringSubmatch(connectionString)
	if m == nil {
		return Descriptor{}, dberrors.ConfigError{
			Field:      catalog,
			Value:      connectionString,
			Message:    "invalid connection string",
			Suggestion: "Use the form '<engine>://<connection>', e.g. 'postgres://jdbc:host:5432/db?user=bob&password=%s'",
		}
	}
	engineName, rest := m[1], m[2]
	if strings.TrimSpace(rest) == "" {
		return Descriptor{}, dberrors.ConfigError{
			Field:   catalog,
			Value:   connectionString,
			Message: "connection string has no connection part after the engine",
		}
	}

	engine, err := ParseEngine(engineName)
	if err != nil {
		return Descriptor{}, err
	}

	desc := Descriptor{
		Catalog:          catalog,
		Engine:           engine,
		ConnectionString: rest,
		AssumeRoleARN:    roleARN,
	}

	if sm := secretPattern.FindStringSubmatch(rest); sm != nil && strings.TrimSpace(sm[1]) != "" {
		desc.SecretName = sm[1]
		return desc, nil
	}

	if iamPasswordPattern.MatchString(connectionString) {
		parts := connectionPartsPattern.FindStringSubmatch(connectionString)
		if parts == nil {
			return Descriptor{}, dberrors.ConfigError{
				Field:      catalog,
				Value:      connectionString,
				Message:    "could not find host, port and username in connection string",
				Suggestion: "IAM-auth connection strings must look like 'jdbc:host:port/database?user=<name>&password=%s'",
			}
		}
		port, err := strconv.Atoi(parts[2])
		if err != nil {
			return Descriptor{}, dberrors.ConfigError{
				Field:   catalog,
				Value:   parts[2],
				Message: "port is out of range",
			}
		}
		desc.IAMAuth = true
		desc.Endpoint = parts[1]
		desc.Port = port
		desc.Username = parts[3]
	}

	return desc, nil
}
