package compileservice

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stormlang/storm/internal/reader"
)

func TestNewGRPCServerRegistersService(t *testing.T) {
	svc := NewService(reader.NewCore(), zerolog.Nop())
	s := NewGRPCServer(svc)

	info := s.GetServiceInfo()
	si, ok := info["storm.compileservice.CompileService"]
	require.True(t, ok, "CompileService not registered")

	var names []string
	for _, m := range si.Methods {
		names = append(names, m.Name)
	}
	require.Contains(t, names, "Compile")
}
