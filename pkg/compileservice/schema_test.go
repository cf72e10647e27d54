package compileservice

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stormlang/storm/internal/config"
)

func TestSchemaParses(t *testing.T) {
	require.NotNil(t, schema.File)
	require.NotNil(t, schema.Service)
	require.Equal(t, "storm.compileservice.CompileService", schema.Service.GetFullyQualifiedName())

	require.NotNil(t, schema.CompileRequest.FindFieldByName("root"))
	require.NotNil(t, schema.CompileRequest.FindFieldByName("overlays"))
	require.NotNil(t, schema.CompileResponse.FindFieldByName("request_id"))
	require.NotNil(t, schema.CompileResponse.FindFieldByName("diagnostics"))
	require.NotNil(t, schema.WatchRequest.FindFieldByName("poll_interval_ms"))

	methods := schema.Service.GetMethods()
	require.Len(t, methods, 2)

	compile := schema.Service.FindMethodByName("Compile")
	require.NotNil(t, compile)
	require.False(t, compile.IsServerStreaming())

	watch := schema.Service.FindMethodByName("Watch")
	require.NotNil(t, watch)
	require.True(t, watch.IsServerStreaming())
}

func TestImportRoundTrip(t *testing.T) {
	imp := config.Import{Name: "std", Path: "/usr/lib/storm/std"}
	m := encodeImport(imp)
	got := decodeImport(m)
	require.Equal(t, imp.Name, got.Name)
	require.Equal(t, imp.Path, got.Path)
}
