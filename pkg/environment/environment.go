package environment

import (
	"errors"
	"fmt"
	"strings"
)

// Environment names the deployment the process runs in.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	// Test relaxes checks that would make fixtures awkward, e.g. switching to
	// a suspended tenant. Never use it for a deployed service.
	Test Environment = "test"
)

// ErrUnknownEnvironment is returned by Parse for unsupported names.
var ErrUnknownEnvironment = errors.New("unknown environment")

// Parse accepts the canonical names and their short aliases
// (dev, stage, prod). Empty input means Development.
func Parse(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "development", "dev":
		return Development, nil
	case "staging", "stage":
		return Staging, nil
	case "production", "prod":
		return Production, nil
	case "test", "testing":
		return Test, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, s)
}

// UnmarshalText lets env loaders decode APP_ENV straight into Environment.
func (e *Environment) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

func (e Environment) String() string { return string(e) }

func (e Environment) IsProduction() bool  { return e == Production }
func (e Environment) IsStaging() bool     { return e == Staging }
func (e Environment) IsDevelopment() bool { return e == Development }
func (e Environment) IsTest() bool        { return e == Test }
