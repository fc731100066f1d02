// Package config loads env-tagged configuration structs.
//
// Every package that needs configuration declares a Config struct with
// caarlos0/env tags and defaults:
//
//	type Config struct {
//		MaxRetries int `env:"POOL_MAX_RETRIES" envDefault:"3"`
//	}
//
// and the hosting process fills it with Load. WithPrefix lets one struct
// type serve several instances (MASTER_ and TENANT_ database settings, for
// example). A .env file in the working directory is read once on the first
// Load; explicit files can be loaded with LoadEnv.
//
// Load keeps no cache: every call parses the environment again, so each
// component gets its own copy.
package config
