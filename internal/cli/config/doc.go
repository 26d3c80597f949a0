// Package config defines the aox-cli configuration (~/.aox/cli.yaml).
//
// ClientConfig carries the connection target, the navigation guard
// lists, the persistent store selection, logging and the mock backend
// settings. Load layers file, AOX_ environment variables and flags on
// top of Default.
package config
