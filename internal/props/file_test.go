package props_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	dberrors "github.com/systmms/dbmux/internal/errors"
	"github.com/systmms/dbmux/internal/props"
)

func writePropsFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dbmux.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFromFileValidProperties(t *testing.T) {
	wanted := map[string]string{
		"default":                  "postgres://jdbc:host:5432/db?${file-secret}",
		"sales_connection_string":  "mysql://jdbc:mysql://h:3306/db?user=u&password=%s",
		"sales_assume_role_arn":    "arn:aws:iam::123456789012:role/sales-reader",
		"unrelated_extra_property": "kept as-is",
	}
	data, err := yaml.Marshal(wanted)
	require.NoError(t, err)
	path := writePropsFile(t, string(data))

	properties, err := props.FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, wanted, properties)
}

func TestFromFileEmptyFileIsEmptyPropertySet(t *testing.T) {
	path := writePropsFile(t, "")

	properties, err := props.FromFile(path)
	require.NoError(t, err)
	require.NotNil(t, properties)
	assert.Empty(t, properties)
}

func TestFromFileMissing(t *testing.T) {
	_, err := props.FromFile(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)

	var cfgErr dberrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "properties_file", cfgErr.Field)
	assert.Contains(t, cfgErr.Message, "not found")
}

func TestFromFileInvalidYAML(t *testing.T) {
	path := writePropsFile(t, "default: [1, 2")

	_, err := props.FromFile(path)
	require.Error(t, err)

	var cfgErr dberrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Message, "invalid YAML syntax")
}

func TestFromFileRejectsNonFlatDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "nested mapping",
			content: "default: postgres://jdbc:h:1/d?${s}\nnested:\n  inner: value\n",
		},
		{
			name:    "unquoted number",
			content: "default: postgres://jdbc:h:1/d?${s}\nport: 5432\n",
		},
		{
			name:    "empty value",
			content: "default: \"\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writePropsFile(t, tt.content)

			_, err := props.FromFile(path)
			require.Error(t, err)

			var cfgErr dberrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Message, "flat map of non-empty strings")
		})
	}
}

func TestFromFileYAMLErrorIsNotWrappedAsUserError(t *testing.T) {
	// Unreadable-file failures use the UserError shape; parse failures stay
	// configuration errors. Keep the two distinguishable for the CLI.
	path := writePropsFile(t, "default: [1, 2")

	_, err := props.FromFile(path)
	require.Error(t, err)

	var userErr dberrors.UserError
	assert.False(t, errors.As(err, &userErr))
}
