// Package compileservice implements Storm's Compile Service
// (SPEC_FULL.md §6 "[EXPANDED] Compile Service"): a gRPC front end over the
// reader pipeline for out-of-process tooling (build systems, CI, editors
// that don't want to link internal/reader directly). It is a thin adapter
// — it holds no name-tree state of its own and never survives a process
// restart, consistent with spec §6 "Persisted state: None in the core".
//
// The wire schema is an embedded .proto parsed at startup with
// github.com/jhump/protoreflect, the same dynamic-descriptor approach the
// teacher's own internal/evaluator/builtins_grpc.go uses to expose
// arbitrary loaded .proto services to Funxy scripts — repurposed here so
// the CLI and the service share one schema without a hand-maintained
// .pb.go in this exercise.
package compileservice

import (
	"fmt"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
)

const protoFile = "storm/compileservice.proto"

const protoSrc = `syntax = "proto3";

package storm.compileservice;

message Import {
  string name = 1;
  string path = 2;
}

message CompileRequest {
  string root = 1;
  repeated Import overlays = 2;
}

message Diagnostic {
  string kind = 1;
  string pos = 2;
  string message = 3;
}

message CompileResponse {
  string request_id = 1;
  repeated Diagnostic diagnostics = 2;
  int64 error_count = 3;
  int64 elapsed_ms = 4;
}

message WatchRequest {
  string root = 1;
  repeated Import overlays = 2;
  int64 poll_interval_ms = 3;
}

service CompileService {
  rpc Compile(CompileRequest) returns (CompileResponse);
  rpc Watch(WatchRequest) returns (stream CompileResponse);
}
`

// wireSchema is every descriptor the service and its dynamic gRPC wiring
// need, parsed once from protoSrc.
type wireSchema struct {
	File            *desc.FileDescriptor
	Service         *desc.ServiceDescriptor
	Import          *desc.MessageDescriptor
	CompileRequest  *desc.MessageDescriptor
	Diagnostic      *desc.MessageDescriptor
	CompileResponse *desc.MessageDescriptor
	WatchRequest    *desc.MessageDescriptor
}

// schema is parsed once at package init; a malformed embedded schema is a
// programming error in this package, not a runtime condition callers
// should need to handle.
var schema = mustParseSchema()

func mustParseSchema() *wireSchema {
	parser := protoparse.Parser{
		Accessor: protoparse.FileContentsFromMap(map[string]string{protoFile: protoSrc}),
	}
	fds, err := parser.ParseFiles(protoFile)
	if err != nil {
		panic(fmt.Sprintf("compileservice: parsing embedded schema: %v", err))
	}
	fd := fds[0]

	sd := fd.FindService("storm.compileservice.CompileService")
	if sd == nil {
		panic("compileservice: CompileService not found in embedded schema")
	}
	find := func(name string) *desc.MessageDescriptor {
		md := fd.FindMessage("storm.compileservice." + name)
		if md == nil {
			panic("compileservice: message " + name + " not found in embedded schema")
		}
		return md
	}
	return &wireSchema{
		File:            fd,
		Service:         sd,
		Import:          find("Import"),
		CompileRequest:  find("CompileRequest"),
		Diagnostic:      find("Diagnostic"),
		CompileResponse: find("CompileResponse"),
		WatchRequest:    find("WatchRequest"),
	}
}
