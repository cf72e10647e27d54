package compileservice

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/stormlang/storm/internal/reader"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(reader.NewCore(), zerolog.Nop())
}

func TestServiceCompileSuccess(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "answer.bs", "Int answer() {\n    var x = 40;\n    x + 2;\n}\n")

	svc := newTestService(t)
	res, err := svc.Compile(context.Background(), dir, nil)
	require.NoError(t, err)
	require.NotEmpty(t, res.RequestID)
	require.Equal(t, 0, res.ErrorCount)
	require.Empty(t, res.Diagnostics)
}

func TestServiceCompileReportsCodeError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.bs", "Int answer() {\n    undefinedFunc();\n}\n")

	svc := newTestService(t)
	res, err := svc.Compile(context.Background(), dir, nil)
	require.NoError(t, err) // code errors are reported, not returned as infra errors
	require.Equal(t, 1, res.ErrorCount)
	require.Len(t, res.Diagnostics, 1)
	require.NotEmpty(t, res.Diagnostics[0].Message)
}

func TestServiceWatchEmitsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "answer.bs", "Int answer() {\n    var x = 40;\n    x + 2;\n}\n")

	svc := newTestService(t)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	var results []*CompileResult
	done := make(chan struct{})
	go func() {
		_ = svc.Watch(ctx, dir, nil, 30*time.Millisecond, func(r *CompileResult) {
			results = append(results, r)
		})
		close(done)
	}()

	time.Sleep(60 * time.Millisecond)
	writeFile(t, dir, "answer.bs", "Int answer() {\n    var x = 41;\n    x + 2;\n}\n")

	<-done
	require.GreaterOrEqual(t, len(results), 2, "expected an initial compile plus at least one re-compile after the edit")
}
