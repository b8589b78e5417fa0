package semantic

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Catalog maps platform object type names to their known methods and
// properties. Method and property resolution checks consult it when enabled.
type Catalog struct {
	methods    map[string]map[string]bool
	properties map[string]map[string]bool
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		methods:    make(map[string]map[string]bool),
		properties: make(map[string]map[string]bool),
	}
}

// BuiltinCatalog returns the bootstrap catalog of platform types.
func BuiltinCatalog() *Catalog {
	c := NewCatalog()
	c.AddType("Array", []string{"Add", "Insert", "Delete", "Clear"}, []string{"Count"})
	c.AddType("Массив", []string{"Добавить", "Вставить", "Удалить", "Очистить"}, []string{"Количество"})

	return c
}

// AddType registers a type with its methods and properties, merging with any
// existing entry.
func (c *Catalog) AddType(name string, methods, properties []string) {
	if c.methods[name] == nil {
		c.methods[name] = make(map[string]bool)
	}
	for _, m := range methods {
		c.methods[name][m] = true
	}

	if c.properties[name] == nil {
		c.properties[name] = make(map[string]bool)
	}
	for _, p := range properties {
		c.properties[name][p] = true
	}
}

// HasType reports whether the catalog knows the type at all.
func (c *Catalog) HasType(name string) bool {
	_, ok := c.methods[name]

	return ok
}

// HasMethod reports whether the type exposes the method.
func (c *Catalog) HasMethod(typeName, method string) bool {
	return c.methods[typeName][method]
}

// HasProperty reports whether the type exposes the property.
func (c *Catalog) HasProperty(typeName, prop string) bool {
	return c.properties[typeName][prop]
}

type catalogFile struct {
	Types map[string]struct {
		Methods    []string `yaml:"methods"`
		Properties []string `yaml:"properties"`
	} `yaml:"types"`
}

// ParseCatalog reads additional type definitions from YAML and merges them
// over the receiver. The format is:
//
//	types:
//	  ТаблицаЗначений:
//	    methods: [Добавить, Очистить]
//	    properties: [Колонки]
func (c *Catalog) ParseCatalog(data []byte) error {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse type catalog: %w", err)
	}

	for name, t := range f.Types {
		c.AddType(name, t.Methods, t.Properties)
	}

	return nil
}
