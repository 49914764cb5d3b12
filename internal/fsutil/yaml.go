// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fsutil

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"
)

// ErrEmptyDocument is returned by ReadYAML for a file with no YAML document.
var ErrEmptyDocument = errors.New("empty YAML document")

// WriteYAML marshals v and writes it to path atomically.
func WriteYAML(path string, v any) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return WriteFileAtomic(path, buf.Bytes(), 0o644)
}

// ReadYAML decodes the YAML document at path into v, rejecting unknown
// fields. A missing file returns an error satisfying os.IsNotExist.
func ReadYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyDocument
		}
		return err
	}
	return nil
}
