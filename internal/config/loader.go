// Package config loads the Secret Santa input document and turns it into
// validated domain models, and reads runtime settings from the environment.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/secretsanta/internal/models"
)

// Document is a parsed but not yet validated input file.
type Document map[string]any

// Load reads and parses the input file at path. JSON and YAML are both
// accepted.
func Load(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.ConfigReadError{Path: path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, &models.ConfigReadError{Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &models.ConfigReadError{Path: path, Err: fmt.Errorf("not a regular file")}
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &models.ConfigReadError{Path: path, Err: err}
	}

	return Parse(path, data)
}

// Parse decodes raw document bytes. A document starting with '{' is tried as
// JSON first since yaml.v3 rejects some JSON escapes such as \/. Anything
// else, or JSON that fails to decode, is parsed as YAML. path is only used in
// error messages.
func Parse(path string, data []byte) (Document, error) {
	var doc Document
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		if err := json.Unmarshal(data, &doc); err == nil {
			return doc, nil
		}
		doc = nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &models.ConfigParseError{Path: path, Err: err}
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}
