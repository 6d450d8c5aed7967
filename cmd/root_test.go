package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "dataset", "workareas", "admin"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "corpsite", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestDatasetCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range datasetCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["validate"])
	assert.True(t, names["import-shp"])

	for _, f := range []string{"areas", "points", "out"} {
		assert.NotNil(t, datasetImportCmd.Flags().Lookup(f), "import-shp should have --%s flag", f)
	}
}

func TestWorkareasCommand_Flags(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range workareasCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["sync"])
	assert.True(t, names["import"])

	flag := workareasImportCmd.Flags().Lookup("xlsx")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"])
	assert.Equal(t, "false", workareasImportCmd.Flags().Lookup("dry-run").DefValue)
}

func TestAdminCommand_HasSummary(t *testing.T) {
	require.Len(t, adminCmd.Commands(), 1)
	assert.Equal(t, "summary", adminCmd.Commands()[0].Name())
}
