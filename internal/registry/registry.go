// Package registry holds the resolver descriptors that describe each upstream
// GraphQL entity: its query field name, selectable fields and numeric fields.
package registry

import (
	"fmt"
	"sort"
	"strings"
)

// Descriptor describes a single upstream resolver. Descriptors returned by a
// Registry share their slices with it and must be treated as read-only.
type Descriptor struct {
	Key              string   `yaml:"key"`
	QueryName        string   `yaml:"query_name"`
	Fields           []string `yaml:"fields"`
	NumericFields    []string `yaml:"numeric_fields"`
	Description      string   `yaml:"description"`
	FilterInputType  string   `yaml:"filter_input_type"`
	OrderByInputType string   `yaml:"order_by_input_type"`

	fieldSet   map[string]struct{}
	numericSet map[string]struct{}
}

// HasField reports whether name is a selectable field of the resolver.
func (d Descriptor) HasField(name string) bool {
	_, ok := d.fieldSet[name]
	return ok
}

// IsNumeric reports whether name is an aggregatable field of the resolver.
func (d Descriptor) IsNumeric(name string) bool {
	_, ok := d.numericSet[name]
	return ok
}

// UnknownResolverError is returned when a resolver key is not registered.
type UnknownResolverError struct {
	Key       string
	Available []string
}

func (e *UnknownResolverError) Error() string {
	return fmt.Sprintf("unknown resolver: %s. Available resolvers: %s", e.Key, strings.Join(e.Available, ", "))
}

// Registry is an immutable set of descriptors keyed by resolver key.
// It is safe for concurrent use.
type Registry struct {
	byKey map[string]Descriptor
	keys  []string
}

// New validates descriptors and builds a registry. Any structural problem
// (duplicate key, duplicate field, numeric field not selectable) is an error.
func New(descs ...Descriptor) (*Registry, error) {
	r := &Registry{byKey: make(map[string]Descriptor, len(descs))}
	for _, d := range descs {
		built, err := prepare(d)
		if err != nil {
			return nil, err
		}
		if _, exists := r.byKey[built.Key]; exists {
			return nil, fmt.Errorf("resolver %q registered twice", built.Key)
		}
		r.byKey[built.Key] = built
		r.keys = append(r.keys, built.Key)
	}
	sort.Strings(r.keys)
	return r, nil
}

func prepare(d Descriptor) (Descriptor, error) {
	d.Key = strings.TrimSpace(d.Key)
	if d.Key == "" {
		return Descriptor{}, fmt.Errorf("resolver key cannot be empty")
	}
	if len(d.Fields) == 0 {
		return Descriptor{}, fmt.Errorf("resolver %q has no fields", d.Key)
	}
	if d.QueryName == "" {
		d.QueryName = DefaultQueryName(d.Key)
	}
	if d.FilterInputType == "" {
		d.FilterInputType = d.Key + "FilterInput"
	}
	if d.OrderByInputType == "" {
		d.OrderByInputType = d.Key + "OrderByInput"
	}

	d.Fields = append([]string(nil), d.Fields...)
	d.NumericFields = append([]string(nil), d.NumericFields...)
	d.fieldSet = make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		if _, dup := d.fieldSet[f]; dup {
			return Descriptor{}, fmt.Errorf("resolver %q lists field %q twice", d.Key, f)
		}
		d.fieldSet[f] = struct{}{}
	}

	d.numericSet = make(map[string]struct{}, len(d.NumericFields))
	for _, f := range d.NumericFields {
		if _, ok := d.fieldSet[f]; !ok {
			return Descriptor{}, fmt.Errorf("resolver %q: numeric field %q is not a selectable field", d.Key, f)
		}
		d.numericSet[f] = struct{}{}
	}
	return d, nil
}

// Lookup returns the descriptor for key, or an *UnknownResolverError.
func (r *Registry) Lookup(key string) (Descriptor, error) {
	d, ok := r.byKey[key]
	if !ok {
		return Descriptor{}, &UnknownResolverError{Key: key, Available: r.Keys()}
	}
	return d, nil
}

// Keys returns the registered resolver keys in sorted order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// All returns every descriptor, sorted by key.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.byKey[k])
	}
	return out
}

// Len returns the number of registered resolvers.
func (r *Registry) Len() int {
	return len(r.keys)
}
