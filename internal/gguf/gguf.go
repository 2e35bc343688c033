// Package gguf reads the general.* metadata of a GGUF weight file through
// gguf-parser-go. Tensor data is never loaded.
package gguf

import (
	"fmt"

	parser "github.com/gpustack/gguf-parser-go"
)

// Metadata is the subset of the header the benchmark reports.
type Metadata struct {
	Version      uint32
	TensorCount  uint64
	Name         string
	Architecture string
	FileType     int
	HasFileType  bool
}

// Quantization maps general.file_type to its llama.cpp label, or "" when
// the key is absent or unrecognized.
func (m Metadata) Quantization() string {
	if !m.HasFileType {
		return ""
	}
	return FileTypeName(m.FileType)
}

// ReadFile parses the header of the file at path.
func ReadFile(path string) (Metadata, error) {
	gf, err := parser.ParseGGUFFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("gguf %s: %w", path, err)
	}
	return fromHeader(gf.Header), nil
}

func fromHeader(h parser.GGUFHeader) Metadata {
	md := Metadata{Version: uint32(h.Version), TensorCount: h.TensorCount}
	if kv, ok := h.MetadataKV.Get("general.name"); ok {
		md.Name, _ = kv.Value.(string)
	}
	if kv, ok := h.MetadataKV.Get("general.architecture"); ok {
		md.Architecture, _ = kv.Value.(string)
	}
	if kv, ok := h.MetadataKV.Get("general.file_type"); ok {
		md.FileType, md.HasFileType = asInt(kv.Value)
	}
	return md
}

// asInt accepts any integer encoding; writers disagree on the width used
// for general.file_type.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case uint8:
		return int(n), true
	case int8:
		return int(n), true
	case uint16:
		return int(n), true
	case int16:
		return int(n), true
	case uint32:
		return int(n), true
	case int32:
		return int(n), true
	case uint64:
		return int(n), true
	case int64:
		return int(n), true
	}
	return 0, false
}
