package compileservice

import (
	"time"

	"github.com/jhump/protoreflect/dynamic"

	"github.com/stormlang/storm/internal/config"
)

// encodeImport/decodeImport translate between config.Import and the
// Import dynamic message, the same Go-value/protoreflect bridge the
// teacher's objectToDynamicMessage/dynamicMessageToObject pair implements
// for arbitrary Funxy records (internal/evaluator/builtins_grpc.go).
func encodeImport(imp config.Import) *dynamic.Message {
	m := dynamic.NewMessage(schema.Import)
	m.SetFieldByName("name", imp.Name)
	m.SetFieldByName("path", imp.Path)
	return m
}

func decodeImport(m *dynamic.Message) config.Import {
	name, _ := m.GetFieldByName("name").(string)
	path, _ := m.GetFieldByName("path").(string)
	return config.Import{Name: name, Path: path}
}

func encodeCompileRequest(root string, overlays []config.Import) *dynamic.Message {
	m := dynamic.NewMessage(schema.CompileRequest)
	m.SetFieldByName("root", root)
	for _, ov := range overlays {
		_ = m.TryAddRepeatedFieldByName("overlays", encodeImport(ov))
	}
	return m
}

func decodeCompileRequest(m *dynamic.Message) (string, []config.Import) {
	root, _ := m.GetFieldByName("root").(string)
	var overlays []config.Import
	for _, v := range m.GetRepeatedFieldByName("overlays") {
		if sub, ok := v.(*dynamic.Message); ok {
			overlays = append(overlays, decodeImport(sub))
		}
	}
	return root, overlays
}

func decodeWatchRequest(m *dynamic.Message) (string, []config.Import, time.Duration) {
	root, _ := m.GetFieldByName("root").(string)
	var overlays []config.Import
	for _, v := range m.GetRepeatedFieldByName("overlays") {
		if sub, ok := v.(*dynamic.Message); ok {
			overlays = append(overlays, decodeImport(sub))
		}
	}
	ms, _ := m.GetFieldByName("poll_interval_ms").(int64)
	interval := time.Duration(ms) * time.Millisecond
	if interval <= 0 {
		interval = time.Second
	}
	return root, overlays, interval
}

func encodeCompileResult(res *CompileResult) *dynamic.Message {
	m := dynamic.NewMessage(schema.CompileResponse)
	m.SetFieldByName("request_id", res.RequestID)
	for _, d := range res.Diagnostics {
		dm := dynamic.NewMessage(schema.Diagnostic)
		dm.SetFieldByName("kind", d.Kind.String())
		dm.SetFieldByName("pos", d.Pos.String())
		dm.SetFieldByName("message", d.Message)
		_ = m.TryAddRepeatedFieldByName("diagnostics", dm)
	}
	m.SetFieldByName("error_count", int64(res.ErrorCount))
	m.SetFieldByName("elapsed_ms", res.Elapsed.Milliseconds())
	return m
}
