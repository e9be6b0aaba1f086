package store

import (
	"fmt"
	"sort"
)

// Table is one whitelisted table. Timestamps marks tables carrying
// created_at/updated_at columns maintained by the facade.
type Table struct {
	Name       string
	Timestamps bool
}

// DependencyRule declares that rows of ChildTable reference ParentTable
// through ForeignKeyColumn, which blocks deleting a referenced parent row.
type DependencyRule struct {
	ParentTable      string
	ChildTable       string
	ForeignKeyColumn string
}

// Schema is the immutable table whitelist and dependency map.
type Schema struct {
	tables map[string]Table
	names  []string
	rules  map[string][]DependencyRule
}

// NewSchema validates and freezes tables and rules. Every name must be an
// identifier and every rule must reference whitelisted tables.
func NewSchema(tables []Table, rules []DependencyRule) (*Schema, error) {
	s := &Schema{
		tables: make(map[string]Table, len(tables)),
		rules:  make(map[string][]DependencyRule),
	}

	for _, t := range tables {
		if !IsIdentifier(t.Name) {
			return nil, fmt.Errorf("invalid table name %q", t.Name)
		}
		if _, dup := s.tables[t.Name]; dup {
			return nil, fmt.Errorf("duplicate table %q", t.Name)
		}
		s.tables[t.Name] = t
		s.names = append(s.names, t.Name)
	}
	sort.Strings(s.names)

	for _, r := range rules {
		if _, ok := s.tables[r.ParentTable]; !ok {
			return nil, fmt.Errorf("dependency rule references unknown parent table %q", r.ParentTable)
		}
		if _, ok := s.tables[r.ChildTable]; !ok {
			return nil, fmt.Errorf("dependency rule references unknown child table %q", r.ChildTable)
		}
		if !IsIdentifier(r.ForeignKeyColumn) {
			return nil, fmt.Errorf("invalid foreign key column %q", r.ForeignKeyColumn)
		}
		s.rules[r.ParentTable] = append(s.rules[r.ParentTable], r)
	}

	return s, nil
}

// MustSchema is NewSchema for static definitions; it panics on error.
func MustSchema(tables []Table, rules []DependencyRule) *Schema {
	s, err := NewSchema(tables, rules)
	if err != nil {
		panic(err)
	}
	return s
}

// Table returns the whitelisted table or INVALID_TABLE.
func (s *Schema) Table(name string) (Table, error) {
	t, ok := s.tables[name]
	if !ok {
		return Table{}, newError(CodeInvalidTable, "table is not allowed", map[string]any{"table": name}, nil)
	}
	return t, nil
}

// Tables returns the whitelisted table names, sorted.
func (s *Schema) Tables() []string {
	return append([]string(nil), s.names...)
}

// Dependents returns the rules whose parent is table.
func (s *Schema) Dependents(table string) []DependencyRule {
	return append([]DependencyRule(nil), s.rules[table]...)
}
