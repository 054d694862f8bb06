package cli

import (
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/kvisten/autosave"
)

// profileSchema is the CUE contract every profile file must satisfy.
// Unknown fields are rejected; path and redis become required when the
// backend needs them.
const profileSchema = `
#Redis: {
	addr:      string & !=""
	password?: string
	db?:       int & >=0
	ttl?:      string & !=""
}

#Profile: {
	key:     string & !=""
	backend: "memory" | "file" | "sqlite" | "redis"
	if backend == "file" || backend == "sqlite" {
		path: string & !=""
	}
	if backend == "redis" {
		redis: #Redis
	}
	path?:      string
	delay?:     string & !=""
	max_wait?:  string & !=""
	immediate?: bool
	redis?:     #Redis
}
`

// Profile describes which document the CLI operates on, which backend
// persists it, and the debounce policy in between.
type Profile struct {
	Key       string       `yaml:"key"`
	Backend   string       `yaml:"backend"`
	Path      string       `yaml:"path,omitempty"`
	Delay     string       `yaml:"delay,omitempty"`
	MaxWait   string       `yaml:"max_wait,omitempty"`
	Immediate bool         `yaml:"immediate,omitempty"`
	Redis     RedisProfile `yaml:"redis,omitempty"`
}

// RedisProfile configures the redis backend.
type RedisProfile struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	TTL      string `yaml:"ttl,omitempty"`
}

// ValidationError is one problem found in a profile file.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// LoadProfile reads, schema-validates, and decodes a profile file. A read
// failure is returned as err; an invalid profile is returned as a non-empty
// list of validation errors.
func LoadProfile(path string) (*Profile, []ValidationError, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	if errs := ValidateProfileBytes(data); len(errs) > 0 {
		return nil, errs, nil
	}
	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		// Unreachable after schema validation, but decode defensively.
		return nil, []ValidationError{{Message: err.Error(), Code: ErrCodeProfileInvalid}}, nil
	}
	return &profile, nil, nil
}

// ValidateProfileBytes checks raw profile YAML against the embedded CUE
// schema plus the duration syntax rules CUE cannot express.
func ValidateProfileBytes(data []byte) []ValidationError {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return []ValidationError{{Message: fmt.Sprintf("not valid YAML: %v", err), Code: ErrCodeProfileInvalid}}
	}
	if raw == nil {
		return []ValidationError{{Message: "profile is empty", Code: ErrCodeProfileInvalid}}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(profileSchema).LookupPath(cue.ParsePath("#Profile"))
	if err := schema.Err(); err != nil {
		return []ValidationError{{Message: fmt.Sprintf("compile profile schema: %v", err), Code: ErrCodeGeneric}}
	}

	unified := schema.Unify(ctx.Encode(raw))
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var errs []ValidationError
		for _, e := range cueerrors.Errors(err) {
			errs = append(errs, ValidationError{
				Field:   cuePathString(e.Path()),
				Message: e.Error(),
				Code:    ErrCodeProfileInvalid,
			})
		}
		return errs
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return []ValidationError{{Message: err.Error(), Code: ErrCodeProfileInvalid}}
	}
	return validateDurations(&profile)
}

// validateDurations checks every duration field parses with Go syntax.
func validateDurations(p *Profile) []ValidationError {
	var errs []ValidationError
	check := func(field, value string) {
		if value == "" {
			return
		}
		if _, err := time.ParseDuration(value); err != nil {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("bad duration %q: use Go syntax like 500ms or 2s", value),
				Code:    ErrCodeProfileInvalid,
			})
		}
	}
	check("delay", p.Delay)
	check("max_wait", p.MaxWait)
	check("redis.ttl", p.Redis.TTL)
	return errs
}

// Config builds the debounce policy from the profile. Call only after
// validation; bad durations fail here too as a backstop.
func (p *Profile) Config() (autosave.Config, error) {
	var cfg autosave.Config
	var err error
	if p.Delay != "" {
		if cfg.Delay, err = time.ParseDuration(p.Delay); err != nil {
			return cfg, fmt.Errorf("profile delay: %w", err)
		}
	}
	if p.MaxWait != "" {
		if cfg.MaxWait, err = time.ParseDuration(p.MaxWait); err != nil {
			return cfg, fmt.Errorf("profile max_wait: %w", err)
		}
	}
	cfg.Immediate = p.Immediate
	return cfg, nil
}

func cuePathString(path []string) string {
	out := ""
	for i, p := range path {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
