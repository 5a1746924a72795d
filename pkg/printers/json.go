package printers

import (
	"encoding/json"
	"fmt"
)

// JSON writes v as indented JSON.
func (pp *PrettyPrint) JSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("printers: encode: %w", err)
	}
	_, err = fmt.Fprintln(pp.Writer(), string(b))
	return err
}
