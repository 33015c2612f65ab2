package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed schema/manifest.schema.json
var schemaBytes []byte

var (
	compiledSchema *jsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
	printer        = message.NewPrinter(language.English)
)

type ValidationResult struct {
	Valid  bool
	Issues []ValidationIssue
}

type ValidationIssue struct {
	Path    string // instance location, e.g. "/advice/0/phase"
	Message string
	Keyword string
}

func (i ValidationIssue) String() string {
	path := i.Path
	if path == "" {
		path = "/"
	}
	return path + ": " + i.Message
}

// ValidationError is returned by Parse and Load for manifests violating the schema.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.String())
	}
	return "invalid manifest: " + strings.Join(parts, "; ")
}

func getSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			compileErr = errors.Wrap(err, "unmarshal schema")
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("manifest.schema.json", doc); err != nil {
			compileErr = errors.Wrap(err, "add schema resource")
			return
		}
		compiledSchema, compileErr = c.Compile("manifest.schema.json")
		if compileErr != nil {
			compileErr = errors.Wrap(compileErr, "compile schema")
		}
	})
	return compiledSchema, compileErr
}

// Validate checks raw manifest data against the manifest schema. The error is
// reserved for undecodable data; schema violations are reported in the result.
func Validate(data []byte, format Format) (*ValidationResult, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, err
	}
	raw, err := decodeGeneric(data, format)
	if err != nil {
		return nil, err
	}
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "convert to json")
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "prepare json for validation")
	}
	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}
	validationErr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, errors.Wrap(err, "validate")
	}
	var issues []ValidationIssue
	collectIssues(validationErr, &issues)
	if len(issues) == 0 {
		issues = append(issues, ValidationIssue{Message: validationErr.Error()})
	}
	return &ValidationResult{Issues: issues}, nil
}

func collectIssues(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) > 0 {
		for _, cause := range ve.Causes {
			collectIssues(cause, issues)
		}
		return
	}
	path := ""
	if len(ve.InstanceLocation) > 0 {
		path = "/" + strings.Join(ve.InstanceLocation, "/")
	}
	issue := ValidationIssue{Path: path}
	if ve.ErrorKind != nil {
		keywordPath := ve.ErrorKind.KeywordPath()
		if len(keywordPath) > 0 {
			issue.Keyword = keywordPath[len(keywordPath)-1]
		}
		issue.Message = ve.ErrorKind.LocalizedString(printer)
	}
	*issues = append(*issues, issue)
}
