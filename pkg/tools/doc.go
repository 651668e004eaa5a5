// Package tools defines the XML tool-call surface external agents use to
// drive browser sessions: the Tool interface, the tool-call parser and a
// name-keyed Registry.
package tools
