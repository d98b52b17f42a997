package commands

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/dbmux/internal/logging"
)

func TestCatalogsTableOutput(t *testing.T) {
	// Note: Cannot use t.Parallel() because captureOutput() swaps the
	// global os.Stdout.
	rt := testRuntime(t, map[string]string{
		"default":                      "postgres://jdbc:db:5432/app?${prod/db-creds}",
		"sales_connection_string":      "mysql://jdbc:mysql://sales-db:3306/sales?user=svc&password=%s",
		"sales_meta_connection_string": "mysql://jdbc:mysql://sales-meta:3306/sales?user=meta&password=%s",
	})

	output, err := captureOutput(t, NewCatalogsCommand(rt), []string{})
	require.NoError(t, err)

	assert.Contains(t, output, "CATALOG")
	assert.Contains(t, output, "default")
	assert.Contains(t, output, "secret")
	assert.Contains(t, output, "prod/db-creds")
	assert.Contains(t, output, "sales")
	assert.Contains(t, output, "svc@sales-db:3306")
	assert.Contains(t, output, "override")
}

func TestCatalogsJSONOutput(t *testing.T) {
	rt := testRuntime(t, map[string]string{
		"default":               "postgres://jdbc:db:5432/app?user=app&password=s3cr3tpass",
		"iam_connection_string": "postgres://jdbc:iam-db:5439/wh?user=svc&password=%s",
		"iam_assume_role_arn":   "arn:aws:iam::123456789012:role/token-signer",
	})

	output, err := captureOutput(t, NewCatalogsCommand(rt), []string{"--json"})
	require.NoError(t, err)

	var catalogs []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &catalogs))
	require.Len(t, catalogs, 2)

	assert.Equal(t, "default", catalogs[0]["catalog"])
	assert.Equal(t, "plain", catalogs[0]["strategy"])
	assert.Equal(t, "iam", catalogs[1]["catalog"])
	assert.Equal(t, "iam", catalogs[1]["strategy"])
	assert.Equal(t, "svc", catalogs[1]["username"])
	assert.Equal(t, "arn:aws:iam::123456789012:role/token-signer", catalogs[1]["assumeRoleArn"])

	assert.NotContains(t, output, "s3cr3tpass", "configured passwords never reach the output")
	assert.Contains(t, catalogs[0]["connectionString"], "[REDACTED]")
}

func TestCatalogsPropertyErrorsSurface(t *testing.T) {
	rt := testRuntime(t, map[string]string{
		"a_connection_string": "postgres://jdbc:h:5432/d?${s}",
	})

	_, err := captureOutput(t, NewCatalogsCommand(rt), []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default connection string")
}

func TestCatalogsMissingPropertiesFile(t *testing.T) {
	rt := &Runtime{
		Logger:    logging.New(false, true),
		PropsFile: filepath.Join(t.TempDir(), "missing.yaml"),
		NoEnv:     true,
	}

	_, err := captureOutput(t, NewCatalogsCommand(rt), []string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestCatalogsEnvironmentOverridesFile(t *testing.T) {
	rt := testRuntime(t, map[string]string{"default": "postgres://jdbc:file-host:5432/db?${s}"})
	rt.NoEnv = false
	t.Setenv("default", "postgres://jdbc:env-host:5432/db?${s}")

	output, err := captureOutput(t, NewCatalogsCommand(rt), []string{"--json"})
	require.NoError(t, err)

	assert.Contains(t, output, "env-host")
	assert.NotContains(t, output, "file-host")
}
