package connection

// Descriptor describes how to reach one catalog. Immutable once built.
//
// ConnectionString is the part after the engine scheme, still carrying the
// ${secretName} placeholder or password=%s marker it was configured with;
// credential values are spliced in at connection time, never at build time.
type Descriptor struct {
	Catalog          string
	Engine           Engine
	ConnectionString string

	// SecretName is set when credentials come from a stored secret.
	SecretName string

	// AssumeRoleARN is the role assumed while resolving this catalog's
	// credential. Empty means the process identity is used directly.
	AssumeRoleARN string

	// IAMAuth marks catalogs authenticating with a generated token instead
	// of a stored secret. Username, Endpoint and Port are populated exactly
	// when IAMAuth is set; the token is requested for that triple.
	IAMAuth  bool
	Username string
	Endpoint string
	Port     int
}

// HasSecret reports whether this catalog's credentials come from a stored
// secret.
func (d Descriptor) HasSecret() bool {
	return d.SecretName != ""
}

// Strategy names the credential strategy for display and logging.
func (d Descriptor) Strategy() string {
	switch {
	case d.HasSecret():
		return "secret"
	case d.IAMAuth:
		return "iam"
	default:
		return "plain"
	}
}

// DescriptorPair carries a catalog's query descriptor and its metadata
// (schema discovery) descriptor. They are the same descriptor unless a
// metadata-specific connection string was configured.
type DescriptorPair struct {
	Primary  Descriptor
	Metadata Descriptor
}
