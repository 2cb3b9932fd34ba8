// Package resolver looks up per-program install properties. A property is
// taken from the override store if set there, otherwise from the program's
// OS-specific resource, otherwise (on Unix-like systems only) from its
// generic-linux resource.
package resolver

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/magiconair/properties"

	"install-tool/internal/logger"
	"install-tool/internal/platform"
	"install-tool/internal/resources"
)

// Recognized property keys.
const (
	KeyDependencies   = "dependencies"
	KeyInstallCommand = "installCommand"
)

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("property not found")
	// ErrEmptyProgram is returned when a lookup is made without a program name.
	ErrEmptyProgram = errors.New("program name is empty")
)

// NotFoundError reports a property that no source could supply, along with
// the resource names that were consulted.
type NotFoundError struct {
	Program   string
	Property  string
	Attempted []string
}

func (e *NotFoundError) Error() string {
	if len(e.Attempted) == 0 {
		return fmt.Sprintf("unable to resolve property %s for program %s", e.Property, e.Program)
	}
	return fmt.Sprintf("unable to resolve property %s for program %s (tried resources %s)",
		e.Property, e.Program, strings.Join(e.Attempted, ", "))
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PropertyStore is the override store consulted before any resource.
type PropertyStore interface {
	Lookup(key string) (string, bool)
}

// Resolver resolves properties for programs. The zero value is not usable;
// build one with New.
type Resolver struct {
	overrides PropertyStore
	loader    resources.Loader

	// Unix enables the generic-linux fallback.
	Unix bool
	// LookupEnv resolves ${NAME} placeholders in resolved values.
	LookupEnv func(string) (string, bool)
}

// New returns a Resolver for the running OS using the process environment.
func New(overrides PropertyStore, loader resources.Loader) *Resolver {
	return &Resolver{
		overrides: overrides,
		loader:    loader,
		Unix:      platform.IsUnix(),
		LookupEnv: os.LookupEnv,
	}
}

// ResourceName returns the resource holding program's properties for osID.
func ResourceName(program, osID string) string {
	return program + ".dependency." + osID + ".properties"
}

// Resolve returns the value of key for program on osID.
func (r *Resolver) Resolve(program, key, osID string) (string, error) {
	if program == "" {
		return "", ErrEmptyProgram
	}
	property := program + "." + key

	if r.overrides != nil {
		if v, ok := r.overrides.Lookup(property); ok {
			logger.Debug("[DEBUG] Resolved property %s from overrides\n", property)
			return r.expand(v), nil
		}
	}

	name := ResourceName(program, osID)
	attempted := []string{name}
	data, err := r.loader.Load(name)
	if errors.Is(err, resources.ErrNotExist) {
		if !r.Unix || osID == platform.GenericLinux {
			return "", &NotFoundError{Program: program, Property: property, Attempted: attempted}
		}
		logger.Debug("[DEBUG] Resource %s does not exist. Trying generic-linux fallback.\n", name)
		name = ResourceName(program, platform.GenericLinux)
		attempted = append(attempted, name)
		data, err = r.loader.Load(name)
		if errors.Is(err, resources.ErrNotExist) {
			return "", &NotFoundError{Program: program, Property: property, Attempted: attempted}
		}
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", property, err)
	}

	props, err := parseProperties(data)
	if err != nil {
		return "", fmt.Errorf("parse resource %s: %w", name, err)
	}
	v, ok := props.Get(property)
	if !ok {
		logger.Debug("[DEBUG] Resource %s has no property %s\n", name, property)
		return "", &NotFoundError{Program: program, Property: property, Attempted: attempted}
	}
	logger.Debug("[DEBUG] Resolved property %s from resource %s\n", property, name)
	return r.expand(v), nil
}

// Dependencies returns the programs listed in program's dependencies
// property. A missing property means no dependencies.
func (r *Resolver) Dependencies(program, osID string) ([]string, error) {
	v, err := r.Resolve(program, KeyDependencies, osID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var deps []string
	for _, d := range strings.Split(v, ",") {
		if d = strings.TrimSpace(d); d != "" {
			deps = append(deps, d)
		}
	}
	return deps, nil
}

// parseProperties decodes a Java-style properties file. Placeholder
// expansion is left to Resolver.expand so only environment values apply.
func parseProperties(data []byte) (*properties.Properties, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	return l.LoadBytes(data)
}

var placeholder = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expand substitutes ${NAME} with the environment value of NAME. Undefined
// variables stay verbatim.
func (r *Resolver) expand(v string) string {
	if r.LookupEnv == nil {
		return v
	}
	return placeholder.ReplaceAllStringFunc(v, func(m string) string {
		name := m[2 : len(m)-1]
		if val, ok := r.LookupEnv(name); ok {
			return val
		}
		return m
	})
}

// MapStore is a PropertyStore backed by a map.
type MapStore map[string]string

// Lookup implements PropertyStore.
func (m MapStore) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}
