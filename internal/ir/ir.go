// Package ir holds the in-memory form of Bril programs.
//
// The package provides the main entry points for reading and writing
// modules: DecodeJSON and EncodeJSON for the JSON form, Print for the
// text form. Text parsing lives in the parser package.
package ir

// Names returns the names of the module's functions in program order
func (m *Module) Names() []string {
	names := make([]string, len(m.Functions))
	for i, f := range m.Functions {
		names[i] = f.Name
	}
	return names
}
