package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

// Validate checks cfg against the embedded CUE schema.
func Validate(cfg *Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	val := ctx.Encode(cfg)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encoding config: %v: %w", err, ErrInvalid)
	}

	// Merge values with schema
	final := def.Unify(val)
	if err := final.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvalid)
	}
	return nil
}
