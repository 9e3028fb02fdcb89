package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/BurntSushi/toml"
)

// schema constrains the shape of wilc.toml. Unknown tables and keys are
// rejected so that typos surface at load time instead of being ignored.
const schema = `
#Manifest: {
	project?: {
		name?:    string & =~"^[A-Za-z_][A-Za-z0-9_-]*$"
		version?: string
	}
	source?: {
		entry?: string & !=""
		lib?:   string
	}
	cache?: {
		enabled?: bool
		path?:    string & !=""
	}
}
`

// Validate checks raw wilc.toml contents against the manifest schema.
func Validate(data []byte) error {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return err
	}

	ctx := cuecontext.New()
	root := ctx.CompileString(schema)
	if err := root.Err(); err != nil {
		return fmt.Errorf("manifest schema: %w", err)
	}
	def := root.LookupPath(cue.ParsePath("#Manifest"))

	v := def.Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return err
	}
	return nil
}
