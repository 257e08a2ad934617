// Package dialect builds the type registries of the template languages.
//
// AXML and Mist share one expression syntax but not one set of types: each
// dialect is a separate sealed [typesystem.Registry] assembled from YAML
// catalogs embedded in the binary. Every dialect starts from the common
// catalog and adds its own types and globals on top.
//
// # Example
//
//	reg := dialect.AXML()
//	ev := evaluator.New(evaluator.WithRegistry(reg))
//
// Custom dialects can be assembled from additional catalogs:
//
//	cat, err := dialect.ParseCatalog(data)
//	reg, err := dialect.Load("custom", dialect.Common(), cat)
package dialect

import (
	"embed"
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zhangrenfeng/axexpr/pkg/ext"
	"github.com/zhangrenfeng/axexpr/pkg/typesystem"
)

// Dialect names.
const (
	NameAXML = "axml"
	NameMist = "mist"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// Catalog declares named types and their members.
type Catalog struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Types       []TypeSpec `yaml:"types"`
}

// TypeSpec declares one named type. Declaring an existing name adds
// members to it.
type TypeSpec struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Properties  []PropertySpec `yaml:"properties"`
	Methods     []MethodSpec   `yaml:"methods"`
}

// PropertySpec declares a property; Type is an annotation.
type PropertySpec struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type"`
	Readonly    bool   `yaml:"readonly"`
	Description string `yaml:"description"`
}

// MethodSpec declares one method overload.
type MethodSpec struct {
	Name        string      `yaml:"name"`
	Params      []ParamSpec `yaml:"params"`
	Returns     string      `yaml:"returns"`
	Variadic    bool        `yaml:"variadic"`
	Description string      `yaml:"description"`
}

// ParamSpec declares a method parameter.
type ParamSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ParseCatalog decodes a YAML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("dialect: parse catalog: %w", err)
	}
	return &c, nil
}

// Apply registers the catalog's types and members in reg. Types are
// registered before any member is defined, so annotations may refer to
// types declared later in the same catalog.
func (c *Catalog) Apply(reg *typesystem.Registry) error {
	prims := make([]*typesystem.Primitive, len(c.Types))
	for i, ts := range c.Types {
		p, ok := reg.Lookup(ts.Name)
		if !ok {
			var err error
			if p, err = reg.Register(ts.Name, ts.Description); err != nil {
				return fmt.Errorf("dialect %s: %w", c.Name, err)
			}
		}
		prims[i] = p
	}

	for i, ts := range c.Types {
		p := prims[i]
		for _, ps := range ts.Properties {
			t, err := annotation(reg, ps.Type)
			if err != nil {
				return fmt.Errorf("dialect %s: %s.%s: %w", c.Name, ts.Name, ps.Name, err)
			}
			err = p.DefineProperty(&typesystem.Property{
				Name:        ps.Name,
				Type:        t,
				Description: ps.Description,
				Readonly:    ps.Readonly,
			})
			if err != nil {
				return fmt.Errorf("dialect %s: %w", c.Name, err)
			}
		}
		for _, ms := range ts.Methods {
			m, err := method(reg, ms)
			if err != nil {
				return fmt.Errorf("dialect %s: %s.%s: %w", c.Name, ts.Name, ms.Name, err)
			}
			if err := p.DefineMethod(m); err != nil {
				return fmt.Errorf("dialect %s: %w", c.Name, err)
			}
		}
	}
	return nil
}

func method(reg *typesystem.Registry, ms MethodSpec) (*typesystem.Method, error) {
	params := make([]typesystem.Param, len(ms.Params))
	for i, p := range ms.Params {
		t, err := annotation(reg, p.Type)
		if err != nil {
			return nil, err
		}
		params[i] = typesystem.Param{Name: p.Name, Type: t}
	}
	ret, err := annotation(reg, ms.Returns)
	if err != nil {
		return nil, err
	}
	return &typesystem.Method{
		Name:        ms.Name,
		Params:      params,
		Return:      ret,
		Variadic:    ms.Variadic,
		Description: ms.Description,
	}, nil
}

// annotation parses a type; an empty annotation means any.
func annotation(reg *typesystem.Registry, src string) (typesystem.Type, error) {
	if src == "" {
		return reg.Any, nil
	}
	return typesystem.ParseAnnotation(reg, src)
}

// Load builds a sealed registry named name from catalogs applied in order,
// with the built-in implementations bound.
func Load(name string, catalogs ...*Catalog) (*typesystem.Registry, error) {
	reg := typesystem.NewRegistry(name)
	for _, c := range catalogs {
		if err := c.Apply(reg); err != nil {
			return nil, err
		}
	}
	if err := ext.Bind(reg); err != nil {
		return nil, fmt.Errorf("dialect %s: %w", name, err)
	}
	reg.Seal()
	return reg, nil
}

// Catalogs lists the catalog files embedded in the binary.
func Catalogs() []string {
	entries, err := catalogFS.ReadDir("catalogs")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// Embedded decodes the named embedded catalog file, such as "axml.yaml".
func Embedded(file string) (*Catalog, error) {
	data, err := catalogFS.ReadFile("catalogs/" + file)
	if err != nil {
		return nil, fmt.Errorf("dialect: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return c, nil
}

func embedded(file string) *Catalog {
	c, err := Embedded(file)
	if err != nil {
		panic(err)
	}
	return c
}

// Common returns the catalog shared by every dialect.
func Common() *Catalog {
	return embedded("common.yaml")
}

var (
	builtinOnce sync.Once
	builtins    map[string]*typesystem.Registry
)

func loadBuiltins() {
	builtins = make(map[string]*typesystem.Registry, 2)
	for _, name := range []string{NameAXML, NameMist} {
		reg, err := Load(name, Common(), embedded(name+".yaml"))
		if err != nil {
			panic(err)
		}
		builtins[name] = reg
	}
}

// AXML returns the shared, sealed AXML registry.
func AXML() *typesystem.Registry {
	builtinOnce.Do(loadBuiltins)
	return builtins[NameAXML]
}

// Mist returns the shared, sealed Mist registry.
func Mist() *typesystem.Registry {
	builtinOnce.Do(loadBuiltins)
	return builtins[NameMist]
}

// ByName returns a built-in dialect registry.
func ByName(name string) (*typesystem.Registry, error) {
	builtinOnce.Do(loadBuiltins)
	reg, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("dialect: unknown dialect %q (want one of %v)", name, Names())
	}
	return reg, nil
}

// Names lists the built-in dialects.
func Names() []string {
	names := []string{NameAXML, NameMist}
	sort.Strings(names)
	return names
}
