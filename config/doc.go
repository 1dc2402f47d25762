// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the relay's listen address, the local
// credential defaults, engine settings and the ordered strategy list.
package config
