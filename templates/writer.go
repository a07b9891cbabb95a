package templates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/giygas/bpmn-tools/templates/entities"
	"github.com/natefinch/atomic"
)

// WriteCollection writes templates to path as a JSON array indented with two spaces.
// The file is replaced atomically, so readers never see a partial array.
func WriteCollection(path string, templates []entities.Template) error {
	if templates == nil {
		templates = []entities.Template{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(templates); err != nil {
		return fmt.Errorf("failed to encode templates: %w", err)
	}

	_, statErr := os.Stat(path)
	existed := statErr == nil

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write templates to %s: %w", path, err)
	}

	// atomic.WriteFile keeps the mode of a replaced file; new files come from a 0600 temp file
	if !existed && errors.Is(statErr, fs.ErrNotExist) {
		if err := os.Chmod(path, 0644); err != nil {
			return fmt.Errorf("failed to set permissions on %s: %w", path, err)
		}
	}

	return nil
}
