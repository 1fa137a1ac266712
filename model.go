package main

import "fmt"

// Model identifies a resource in the object/model hierarchy. Both fields
// present names a single tileset; either or both absent names a rollup
// scope for metrics. object absent with name present is illegal.
type Model struct {
	Object    string
	HasObject bool
	Name      string
	HasName   bool
}

// NewModel builds a Model from optional object/name strings.
func NewModel(object, name *string) Model {
	m := Model{}
	if object != nil {
		m.Object, m.HasObject = *object, true
	}
	if name != nil {
		m.Name, m.HasName = *name, true
	}
	return m
}

// String renders the model as it appears in the authority URL path
// ("object/name" or "object"); a model with neither field renders as "*".
func (m Model) String() string {
	switch {
	case m.HasObject && m.HasName:
		return fmt.Sprintf("%s/%s", m.Object, m.Name)
	case m.HasObject:
		return m.Object
	default:
		return "*"
	}
}

// SessionID is the opaque session cookie value. Absent (Present=false) is a
// valid, distinct cache key from an empty-but-present value.
type SessionID struct {
	Value   string
	Present bool
}

// NewSessionID builds a SessionID from an optional cookie value.
func NewSessionID(value *string) SessionID {
	if value == nil {
		return SessionID{}
	}
	return SessionID{Value: *value, Present: true}
}

func (s SessionID) String() string {
	if !s.Present {
		return "-"
	}
	return s.Value
}

// AccessKey is the cache key for authorization decisions: a resource
// coordinate plus the session asking about it. Comparable and immutable.
type AccessKey struct {
	Model   Model
	Session SessionID
}

// String returns a stable encoding suitable as a singleflight key and map
// diagnostics; it disambiguates "absent" from an empty string in every field.
func (k AccessKey) String() string {
	obj, name, sess := "-", "-", "-"
	if k.Model.HasObject {
		obj = k.Model.Object
	}
	if k.Model.HasName {
		name = k.Model.Name
	}
	if k.Session.Present {
		sess = k.Session.Value
	}
	return fmt.Sprintf("obj=%q/name=%q/sess=%q", obj, name, sess)
}

// AccessMode is the verdict returned by the authority: no third value,
// transient errors collapse to Denied.
type AccessMode int

const (
	Denied AccessMode = iota
	Granted
)

func (m AccessMode) String() string {
	if m == Granted {
		return "granted"
	}
	return "denied"
}
