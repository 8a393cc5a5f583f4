package config

import "errors"

// ErrInvalidConfig marks a setting that fails Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrLoadConfig marks a failure to read the YAML file or environment.
var ErrLoadConfig = errors.New("loading configuration")
