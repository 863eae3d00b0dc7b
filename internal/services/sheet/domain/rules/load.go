package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Schema file formats accepted by DecodeSchemas.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

type schemaFile struct {
	Skills     *Schema `yaml:"skills" toml:"skills"`
	Attributes *Schema `yaml:"attributes" toml:"attributes"`
}

// LoadSchemas reads a schema file, choosing the decoder from the extension
// (.yaml, .yml or .toml). An empty path yields the defaults.
func LoadSchemas(path string) (Schemas, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return DefaultSchemas(), nil
	}
	var format string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	case ".toml":
		format = FormatTOML
	default:
		return Schemas{}, fmt.Errorf("schema file %s: unsupported extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Schemas{}, fmt.Errorf("read schema file: %w", err)
	}
	schemas, err := DecodeSchemas(data, format)
	if err != nil {
		return Schemas{}, fmt.Errorf("schema file %s: %w", path, err)
	}
	return schemas, nil
}

// DecodeSchemas parses schema data in the given format. Sections missing from
// the document keep their defaults; unknown keys are rejected.
func DecodeSchemas(data []byte, format string) (Schemas, error) {
	var file schemaFile
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return Schemas{}, fmt.Errorf("decode yaml: %w", err)
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return Schemas{}, fmt.Errorf("decode toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Schemas{}, fmt.Errorf("decode toml: unknown key %s", undecoded[0])
		}
	default:
		return Schemas{}, fmt.Errorf("unsupported schema format %q", format)
	}

	schemas := DefaultSchemas()
	if file.Skills != nil {
		schemas.Skills = *file.Skills
	}
	if file.Attributes != nil {
		schemas.Attributes = *file.Attributes
	}
	if err := schemas.Validate(); err != nil {
		return Schemas{}, err
	}
	return schemas, nil
}

// EncodeSchemas writes schemas in the given format. The output decodes back
// to the same schemas with DecodeSchemas.
func EncodeSchemas(s Schemas, format string) ([]byte, error) {
	file := schemaFile{Skills: &s.Skills, Attributes: &s.Attributes}
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(file)
		if err != nil {
			return nil, fmt.Errorf("encode yaml: %w", err)
		}
		return data, nil
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(file); err != nil {
			return nil, fmt.Errorf("encode toml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported schema format %q", format)
	}
}
