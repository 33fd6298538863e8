// CUE schema validation code
package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var defaultSchema []byte

// ValidateWithCue validates YAML configuration bytes against a CUE schema.
func ValidateWithCue(configYAML, schemaCUE []byte) error {
	ctx := cuecontext.New()

	var configData map[string]any
	if err := yaml.Unmarshal(configYAML, &configData); err != nil {
		return fmt.Errorf("cannot unmarshal YAML config: %w", err)
	}
	if configData == nil {
		configData = map[string]any{}
	}
	configVal := ctx.Encode(configData)
	if configVal.Err() != nil {
		return fmt.Errorf("cannot encode YAML config: %w", configVal.Err())
	}

	schemaVal := ctx.CompileBytes(schemaCUE)
	if schemaVal.Err() != nil {
		return fmt.Errorf("cannot compile CUE schema: %w", schemaVal.Err())
	}

	final := schemaVal.Unify(configVal)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
