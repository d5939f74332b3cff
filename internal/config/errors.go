package config

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidConfig        = errors.New("invalid config")
	ErrLoadConfig           = errors.New("load config failed")
	ErrConfigurationMissing = errors.New("remote store configuration missing")

	errStoreURLEmpty  = errors.New("store_url is empty")
	errStoreURLScheme = errors.New("store_url must start with a scheme and name a host")
	errStoreKeyEmpty  = errors.New("store_key is empty")
)

// Remediation is the operator-facing hint shown while the service is degraded.
const Remediation = "Set HUNT_STORE_URL (e.g. postgres://host:5432/hunt) and HUNT_STORE_KEY, then restart the service."
