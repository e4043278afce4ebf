package printers

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"tableflip.dev/cookbook/pkg/model"
)

// Export writes m as YAML. Amounts are the stored, unscaled ones and image
// bytes are left out.
func Export(w io.Writer, m model.Recipe) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("printers: export %s: %w", m.Name, err)
	}
	return enc.Close()
}
