// Package config loads, validates and watches the tabulist service
// configuration. Configuration is read from a YAML file layered over
// built-in defaults, and the file can be watched for changes so a running
// service picks up edits without a restart.
package config
