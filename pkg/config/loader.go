package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	cache           sync.Map // reflect.Type -> *entry
	defaultEnvFiles sync.Once
)

type entry struct {
	once  sync.Once
	value any
	err   error
}

// Load parses environment variables into v. Each config type is parsed once
// per process; later calls get a copy of the cached value. A .env file in the
// working directory is loaded first when present.
//
//	type Config struct {
//		Addr string `env:"APP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil { ... }
func Load[T any](v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	defaultEnvFiles.Do(func() {
		// A missing .env file is fine.
		_ = godotenv.Load()
	})

	key := reflect.TypeFor[T]()
	raw, _ := cache.LoadOrStore(key, &entry{})
	e := raw.(*entry)

	e.once.Do(func() {
		var parsed T
		if err := env.Parse(&parsed); err != nil {
			e.err = errors.Join(ErrParsingConfig, err)
			return
		}
		e.value = parsed
	})

	if e.err != nil {
		// Allow a retry once the environment is fixed.
		cache.CompareAndDelete(key, e)
		return e.err
	}

	*v = e.value.(T)
	return nil
}

// MustLoad is Load that panics on error, for values required at startup.
func MustLoad[T any](v *T) {
	if err := Load(v); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
}

// Option configures Parse.
type Option func(*parseOptions)

type parseOptions struct {
	prefix      string
	files       []string
	environment map[string]string
}

// WithPrefix requires every variable to carry prefix, e.g. "TENANTKIT_".
func WithPrefix(prefix string) Option {
	return func(o *parseOptions) { o.prefix = prefix }
}

// WithEnvFiles loads dotenv files before parsing. Existing variables win.
func WithEnvFiles(files ...string) Option {
	return func(o *parseOptions) { o.files = append(o.files, files...) }
}

// WithEnvironment parses from vars instead of the process environment.
func WithEnvironment(vars map[string]string) Option {
	return func(o *parseOptions) { o.environment = vars }
}

// Parse fills v without caching. Useful for tests and for loading the same
// type from several prefixes.
func Parse[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	var o parseOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(o.files) > 0 {
		if err := godotenv.Load(o.files...); err != nil {
			return errors.Join(ErrLoadingEnvFile, err)
		}
	}

	if err := env.ParseWithOptions(v, env.Options{
		Prefix:      o.prefix,
		Environment: o.environment,
	}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}
