// Package modules groups the native library packages and installs them
// into an evaluator registry.
package modules

import (
	"fmt"
	"sort"
	"sync"

	"github.com/funvibe/funphp/internal/config"
	"github.com/funvibe/funphp/internal/evaluator"
	"github.com/funvibe/funphp/internal/modules/core"
	"github.com/funvibe/funphp/internal/modules/i18n"
	"github.com/funvibe/funphp/internal/modules/preg"
	"github.com/funvibe/funphp/internal/modules/serialize"
	"github.com/funvibe/funphp/internal/modules/session"
	"github.com/funvibe/funphp/internal/modules/str"
	"github.com/funvibe/funphp/internal/modules/yamlext"
)

// Package is a named group of builtins that needs no configuration.
type Package struct {
	Name    string
	Doc     string
	Install func(*evaluator.Registry) error
}

var (
	packages     map[string]*Package
	initPackages sync.Once
)

func registerPackage(p *Package) { packages[p.Name] = p }

func initStaticPackages() {
	initPackages.Do(func() {
		packages = make(map[string]*Package)
		registerPackage(&Package{Name: "core", Doc: "variables, types, arrays, strings and math", Install: core.Register})
		registerPackage(&Package{Name: "string", Doc: "query strings and URL encoding", Install: str.Register})
		registerPackage(&Package{Name: "preg", Doc: "Perl-compatible regular expressions", Install: preg.Register})
		registerPackage(&Package{Name: "yaml", Doc: "YAML parsing and emitting", Install: yamlext.Register})
		registerPackage(&Package{Name: "serialize", Doc: "serialize and unserialize", Install: serialize.Register})
	})
}

// Get returns the static package called name, or nil.
func Get(name string) *Package {
	initStaticPackages()
	return packages[name]
}

// Names lists every package a Runtime can install, sorted.
func Names() []string {
	initStaticPackages()
	names := make([]string, 0, len(packages)+2)
	for name := range packages {
		names = append(names, name)
	}
	names = append(names, "i18n", "session")
	sort.Strings(names)
	return names
}

// Runtime holds the configured packages of one interpreter session. The
// i18n and session packages depend on configuration; session also owns a
// database handle that Close releases.
type Runtime struct {
	Session *session.Manager

	cfg     *config.Config
	enabled map[string]bool
}

// Open prepares the packages listed in names, or all of them when names
// is empty.
func Open(cfg *config.Config, names ...string) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	initStaticPackages()
	rt := &Runtime{cfg: cfg, enabled: make(map[string]bool)}
	if len(names) == 0 {
		names = Names()
	}
	for _, name := range names {
		if packages[name] == nil && name != "i18n" && name != "session" {
			return nil, fmt.Errorf("unknown package %q", name)
		}
		rt.enabled[name] = true
	}
	if rt.enabled["session"] {
		m, err := session.Open(cfg.Session)
		if err != nil {
			return nil, err
		}
		rt.Session = m
	}
	return rt, nil
}

// Install registers every enabled package into r, core first and the rest
// by name.
func (rt *Runtime) Install(r *evaluator.Registry) error {
	order := make([]string, 0, len(rt.enabled))
	for name := range rt.enabled {
		if name != "core" {
			order = append(order, name)
		}
	}
	sort.Strings(order)
	if rt.enabled["core"] {
		order = append([]string{"core"}, order...)
	}

	for _, name := range order {
		var err error
		switch name {
		case "i18n":
			err = (&i18n.Module{DefaultCharset: rt.cfg.DefaultCharset}).Install(r)
		case "session":
			err = rt.Session.Install(r)
		default:
			err = packages[name].Install(r)
		}
		if err != nil {
			return fmt.Errorf("package %s: %w", name, err)
		}
	}
	return nil
}

// Close writes back an active session and releases its store.
func (rt *Runtime) Close() error {
	if rt.Session == nil {
		return nil
	}
	err := rt.Session.Close()
	rt.Session = nil
	return err
}
