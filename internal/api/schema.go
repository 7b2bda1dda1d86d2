package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	schemaBase   = "https://nearkarts.local/schemas/"
	maxBodyBytes = 1 << 20
)

// Request schemas by name.
const (
	schemaMint      = "mint"
	schemaUpgrade   = "upgrade"
	schemaConfigure = "configure"
	schemaTransfer  = "transfer"
	schemaSigner    = "signer"
	schemaCall      = "call"
)

type schemaSet map[string]*jsonschema.Schema

func compileSchemas() (schemaSet, error) {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020

	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		data, err := schemaFS.ReadFile("schemas/" + e.Name())
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+e.Name(), bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", e.Name(), err)
		}
		names = append(names, e.Name())
	}

	set := make(schemaSet, len(names))
	for _, name := range names {
		s, err := c.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		set[strings.TrimSuffix(name, ".json")] = s
	}
	return set, nil
}

// requestError is a body that failed to parse or validate.
type requestError struct {
	field   string
	message string
}

func (e *requestError) Error() string {
	return e.message
}

// validate checks raw against the named schema.
func (s schemaSet) validate(name string, raw []byte) error {
	schema, ok := s[name]
	if !ok {
		return fmt.Errorf("no schema %q", name)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return &requestError{field: "body", message: "invalid JSON: " + err.Error()}
	}
	if err := schema.Validate(doc); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			leaf := ve
			for len(leaf.Causes) > 0 {
				leaf = leaf.Causes[0]
			}
			field := leaf.InstanceLocation
			if field == "" {
				field = "body"
			}
			return &requestError{field: field, message: leaf.Message}
		}
		return &requestError{field: "body", message: err.Error()}
	}
	return nil
}

// decodeBody reads, validates and decodes a request body into T.
func decodeBody[T any](s schemaSet, r *http.Request, w http.ResponseWriter, schema string) (T, error) {
	var out T
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return out, &requestError{field: "body", message: err.Error()}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, &requestError{field: "body", message: "request body is required"}
	}
	if err := s.validate(schema, raw); err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &requestError{field: "body", message: err.Error()}
	}
	return out, nil
}
