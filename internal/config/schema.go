package config

import (
	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schemaSource constrains a resolved Config. Durations are nanoseconds.
const schemaSource = `
#Config: {
	api_url:         string & =~"^https?://[^/]+"
	db_path:         string & !=""
	sync_debounce:   int & >=0
	request_timeout: int & >0
	retry: {
		max_attempts: int & >=1 & <=10
		base_delay:   int & >=0
		max_delay:    int & >=base_delay
	}
	log_level: "debug" | "info" | "warn" | "error"
}
`

// Validate checks cfg against the CUE schema.
func Validate(cfg Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return &Error{Source: "schema", Message: "compile schema", Err: err}
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	data := ctx.Encode(asMap(cfg))
	if err := data.Err(); err != nil {
		return &Error{Source: "schema", Message: "encode config", Err: err}
	}

	if err := def.Unify(data).Validate(cue.Concrete(true)); err != nil {
		return &Error{Source: "schema", Message: "invalid configuration", Err: err}
	}
	return nil
}

func asMap(cfg Config) map[string]any {
	return map[string]any{
		"api_url":         cfg.APIURL,
		"db_path":         cfg.DBPath,
		"sync_debounce":   int64(cfg.SyncDebounce),
		"request_timeout": int64(cfg.RequestTimeout),
		"retry": map[string]any{
			"max_attempts": cfg.Retry.MaxAttempts,
			"base_delay":   int64(cfg.Retry.BaseDelay),
			"max_delay":    int64(cfg.Retry.MaxDelay),
		},
		"log_level": cfg.LogLevel,
	}
}
