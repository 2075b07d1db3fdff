// Package common holds enums shared by configuration and rendering engine.
// Engine packages (markup, document) must not depend on config, so the types
// they are parametrized with live here.
package common

// How characters named by bracket entities are written to the output.
// ENUM(numeric, named, unicode, latin1)
type EntityMode int

// Named entity form is preferred when available.
func (m EntityMode) PreferNamed() bool {
	return m == EntityModeNamed
}

// How page boundaries are marked in the output.
// ENUM(comment, anchored)
type PageNumbering int
