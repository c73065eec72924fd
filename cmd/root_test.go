package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizray/registry-cli/internal/config"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()

	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	expected := []string{"serve", "risk", "search", "import", "metrics"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "bizray", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRiskCommand_Flags(t *testing.T) {
	require.NotNil(t, riskCmd.Flags().Lookup("all"))
	workers := riskCmd.Flags().Lookup("workers")
	require.NotNil(t, workers)
	assert.Equal(t, "4", workers.DefValue)
}

// testConfig points the commands at a throwaway SQLite store with caching
// disabled.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.Store.Driver = "sqlite"
	c.Store.DatabaseURL = filepath.Join(t.TempDir(), "test.db")
	return c
}

const testExtract = `<?xml version="1.0"?>
<ns1:AUSZUG xmlns:ns1="ns://firmenbuch.justiz.gv.at/Abfrage/v2/AuszugResponse" ns1:FNR="FN 123456 a">
  <ns1:FI>
    <ns1:FI_DKZ02><ns1:BEZEICHNUNG>Musterfirma GmbH</ns1:BEZEICHNUNG></ns1:FI_DKZ02>
  </ns1:FI>
</ns1:AUSZUG>`

func TestImportCmd_ImportsExtracts(t *testing.T) {
	cfg = testConfig(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fn123456a.xml"), []byte(testExtract), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.xml"), []byte("<kaputt"), 0o644))

	importCmd.SetContext(context.Background())
	require.NoError(t, importCmd.RunE(importCmd, []string{dir}))

	env, err := initEnv(context.Background())
	require.NoError(t, err)
	defer env.Close()

	company, err := env.Store.GetCompany(context.Background(), "FN123456a")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "Musterfirma GmbH", company.Name)
}

func TestImportCmd_MissingPath(t *testing.T) {
	cfg = testConfig(t)

	importCmd.SetContext(context.Background())
	err := importCmd.RunE(importCmd, []string{filepath.Join(t.TempDir(), "absent.xml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stat")
}

func TestInitEnv_UnknownDriver(t *testing.T) {
	cfg = testConfig(t)
	cfg.Store.Driver = "oracle"

	_, err := initEnv(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver")
}
