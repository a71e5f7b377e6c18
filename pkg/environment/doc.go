// Package environment defines the deployment environments the service knows
// about: development, staging, production and test.
//
// Environment implements encoding.TextUnmarshaler, so configuration structs
// can declare an Environment field and let the env loader validate it:
//
//	type Config struct {
//		Env environment.Environment `env:"APP_ENV" envDefault:"development"`
//	}
package environment
