package director

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// WriteStoryboard writes a storyboard to a YAML file
func WriteStoryboard(sb *Storyboard, path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(sb); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// ReadStoryboard reads a storyboard from a YAML file
func ReadStoryboard(path string) (*Storyboard, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sb, err := ParseStoryboard(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sb, nil
}

// ParseStoryboard decodes a storyboard and rejects unknown top-level keys.
func ParseStoryboard(r io.Reader) (*Storyboard, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var sb Storyboard
	if err := dec.Decode(&sb); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty document", ErrStoryboard)
		}
		return nil, fmt.Errorf("%w: %w", ErrStoryboard, err)
	}
	sb.ApplyDefaults()
	return &sb, nil
}
