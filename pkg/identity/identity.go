// Package identity defines the caller identity that flows through credential
// resolution in dbmux.
//
// A multiplexed connector serves many principals through one process. Which
// credential a catalog resolves to depends not only on the catalog but on who
// is asking: the caller's principal tags are forwarded as role-session tags
// during role assumption, so downstream IAM policies can condition on them
// (attribute-based access control). The identity therefore participates in
// cache keys — two callers with different tags must never share a cached
// credential.
//
// # Tag Ordering
//
// Tags are carried as an ordered slice, not a map. The order in which tags
// are attached to a role session and folded into cache keys is part of the
// caller's identity: callers supplying the same tags in the same order are
// interchangeable, callers differing in order are not. Identities built with
// FromMap get a deterministic order (sorted by key) because Go maps have no
// iteration order to preserve.
//
// # Immutability
//
// A Caller is supplied per resolution by the request-handling boundary and
// treated as immutable. Resolvers never modify, filter, or reorder its tags.
package identity

import "sort"

// Tag is a single principal attribute, forwarded verbatim as a role-session
// tag during role assumption.
type Tag struct {
	// Key is the attribute name, e.g. "team" or "cost-center".
	Key string

	// Value is the attribute value, e.g. "analytics".
	Value string
}

// Caller identifies the principal a credential is being resolved for.
type Caller struct {
	// ARN is the caller's unique principal identifier. It scopes cache
	// entries and, when it carries an email, names the role session.
	ARN string

	// Tags are the caller's principal attributes in propagation order.
	// May be empty. Never mutated by the resolution layer.
	Tags []Tag
}

// New returns a Caller with the given ARN and tags. The tag slice is copied
// so later mutation by the caller cannot change an identity already handed
// to a resolver.
func New(arn string, tags []Tag) Caller {
	copied := make([]Tag, len(tags))
	copy(copied, tags)
	return Caller{ARN: arn, Tags: copied}
}

// FromMap returns a Caller whose tags are the entries of m sorted by key.
// Use this at boundaries that receive tags as an unordered mapping; the
// sorted order makes cache keys and session-tag order deterministic.
func FromMap(arn string, m map[string]string) Caller {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tags := make([]Tag, 0, len(m))
	for _, k := range keys {
		tags = append(tags, Tag{Key: k, Value: m[k]})
	}
	return Caller{ARN: arn, Tags: tags}
}

// TagMap returns the tags as a plain map, losing order. Intended for display
// and logging only; never use it to rebuild an identity.
func (c Caller) TagMap() map[string]string {
	m := make(map[string]string, len(c.Tags))
	for _, t := range c.Tags {
		m[t.Key] = t.Value
	}
	return m
}
