// Package config defines the configuration surface for docmirror and its
// validation rules. Configuration is populated from CLI flags and an optional
// YAML file, then passed through the application by dependency injection.
package config
