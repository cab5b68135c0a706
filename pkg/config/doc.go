// Package config resolves dopatch settings.
//
// Settings come from layered TOML sources merged with koanf: the embedded
// defaults, the user file under the XDG config home, a .dopatch.toml in the
// working directory, an explicit --config file and finally DOPATCH_*
// environment variables. Later layers override earlier ones key by key.
//
// Command-line flags are applied by the commands on top of the resolved
// Config.
package config
