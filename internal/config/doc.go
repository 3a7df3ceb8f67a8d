// Package config loads taskd settings from defaults, an optional config.yaml
// and TASKD_* environment variables, and validates them with
// go-playground/validator before anything else starts.
package config
