package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
	"go.mongodb.org/mongo-driver/v2/bson"
	"gopkg.in/yaml.v3"
)

// Load error codes. The CLI reports them verbatim.
const (
	ErrCodeNotFound    = "E005" // File not found
	ErrCodeUnsupported = "E003" // Unknown file extension
	ErrCodeParse       = "E004" // File could not be parsed
	ErrCodeDecode      = "E006" // Parsed file is not a valid step list
)

// CUE fields holding the step list in .cue files.
const (
	CUEFieldPipeline = "pipeline"
	CUEFieldStages   = "stages"
)

// LoadError represents an error that occurred while loading a file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadFile reads a pipeline from a .json, .yaml/.yml or .cue file.
// CUE files must declare the steps in a top-level `pipeline` field.
func LoadFile(path string) (Pipeline, error) {
	data, err := readAsJSON(path, CUEFieldPipeline)
	if err != nil {
		return nil, err
	}
	var p Pipeline
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return p, nil
}

// LoadDocumentsFile reads a list of ordered documents (for instance Mongo
// stages) from a .json, .yaml/.yml or .cue file. CUE files must declare the
// list in a top-level `stages` field.
func LoadDocumentsFile(path string) ([]bson.D, error) {
	data, err := readAsJSON(path, CUEFieldStages)
	if err != nil {
		return nil, err
	}
	docs, err := DecodeDocuments(data)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return docs, nil
}

// readAsJSON reads a file and returns its content as JSON, keeping object
// key order from the source.
func readAsJSON(path, cueField string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return data, nil
	case ".yaml", ".yml":
		return yamlToJSON(path, data)
	case ".cue":
		return cueToJSON(path, data, cueField)
	default:
		return nil, &LoadError{
			Code:    ErrCodeUnsupported,
			Message: fmt.Sprintf("unsupported file extension %q (want .json, .yaml, .yml or .cue)", filepath.Ext(path)),
		}
	}
}

func yamlToJSON(path string, data []byte) ([]byte, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: failed to parse YAML: %v", path, err)}
	}
	var buf bytes.Buffer
	if err := writeYAMLNode(&buf, &root); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s: %v", path, err)}
	}
	return buf.Bytes(), nil
}

// writeYAMLNode writes a YAML node tree as JSON. Mapping order is kept,
// which yaml.v3 only exposes through the Node API.
func writeYAMLNode(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeYAMLNode(buf, n.Content[0])
	case yaml.AliasNode:
		return writeYAMLNode(buf, n.Alias)
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, child := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeYAMLNode(buf, child); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeYAMLNode(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		buf.Write(b)
		return nil
	default:
		return fmt.Errorf("line %d: unexpected YAML node kind %d", n.Line, n.Kind)
	}
}

func cueToJSON(path string, data []byte, field string) ([]byte, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("building CUE value: %v", err), Pos: value.Pos()}
	}

	list := value.LookupPath(cue.ParsePath(field))
	if !list.Exists() {
		return nil, &LoadError{Code: ErrCodeDecode, Message: fmt.Sprintf("%s: no %q field", path, field), Pos: value.Pos()}
	}
	if err := list.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("%s must be concrete: %v", field, err), Pos: list.Pos()}
	}

	out, err := list.MarshalJSON()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeParse, Message: fmt.Sprintf("exporting %s: %v", field, err), Pos: list.Pos()}
	}
	return out, nil
}
