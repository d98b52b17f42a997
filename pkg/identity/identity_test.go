package identity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/dbmux/pkg/identity"
)

func TestNewCopiesTags(t *testing.T) {
	t.Parallel()

	tags := []identity.Tag{
		{Key: "team", Value: "analytics"},
		{Key: "env", Value: "prod"},
	}

	caller := identity.New("arn:aws:iam::123456789012:user/jane.doe", tags)

	// Mutating the input slice must not change the identity
	tags[0].Value = "changed"

	assert.Equal(t, "analytics", caller.Tags[0].Value)
	assert.Equal(t, "arn:aws:iam::123456789012:user/jane.doe", caller.ARN)
}

func TestNewPreservesTagOrder(t *testing.T) {
	t.Parallel()

	// Deliberately not sorted; the order given is the order kept
	caller := identity.New("arn:aws:iam::123456789012:user/jane.doe", []identity.Tag{
		{Key: "zone", Value: "eu"},
		{Key: "team", Value: "analytics"},
		{Key: "env", Value: "prod"},
	})

	keys := make([]string, 0, len(caller.Tags))
	for _, tag := range caller.Tags {
		keys = append(keys, tag.Key)
	}

	assert.Equal(t, []string{"zone", "team", "env"}, keys)
}

func TestFromMapSortsByKey(t *testing.T) {
	t.Parallel()

	caller := identity.FromMap("arn:aws:iam::123456789012:user/jane.doe", map[string]string{
		"zone": "eu",
		"env":  "prod",
		"team": "analytics",
	})

	expected := []identity.Tag{
		{Key: "env", Value: "prod"},
		{Key: "team", Value: "analytics"},
		{Key: "zone", Value: "eu"},
	}
	assert.Equal(t, expected, caller.Tags)
}

func TestTagMapRoundTrip(t *testing.T) {
	t.Parallel()

	caller := identity.New("arn:aws:sts::123456789012:assumed-role/app/session", []identity.Tag{
		{Key: "team", Value: "analytics"},
		{Key: "env", Value: "prod"},
	})

	assert.Equal(t, map[string]string{
		"team": "analytics",
		"env":  "prod",
	}, caller.TagMap())
}

func TestEmptyTags(t *testing.T) {
	t.Parallel()

	caller := identity.New("arn:aws:iam::123456789012:role/service", nil)

	assert.Empty(t, caller.Tags)
	assert.Empty(t, caller.TagMap())
}
