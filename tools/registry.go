// Package tools provides the immutable tool-schema catalog.
//
// Information Hiding:
// - Catalog storage and lookup implementation hidden
// - Callers always receive copies, so the catalog cannot be mutated
//   after construction

package tools

import (
	"fmt"
	"slices"
	"strings"

	"github.com/richinex/ollamabridge/llm"
)

// Catalog is the read-only set of tool schemas offered to the model.
// It is built once for a working directory and safe for concurrent use.
type Catalog struct {
	workingDir string
	names      []string
	metadata   map[string]ToolMetadata
	schemas    map[string]llm.ToolDefinition
}

// NewCatalog builds the catalog for workingDir.
func NewCatalog(workingDir string) *Catalog {
	builtin := builtinTools(workingDir)
	c := &Catalog{
		workingDir: workingDir,
		names:      make([]string, 0, len(builtin)),
		metadata:   make(map[string]ToolMetadata, len(builtin)),
		schemas:    make(map[string]llm.ToolDefinition, len(builtin)),
	}
	for _, meta := range builtin {
		c.names = append(c.names, meta.Name)
		c.metadata[meta.Name] = meta
		c.schemas[meta.Name] = meta.Definition()
	}
	return c
}

// WorkingDir returns the working directory captured at construction.
func (c *Catalog) WorkingDir() string {
	return c.workingDir
}

// Len returns the number of tools.
func (c *Catalog) Len() int {
	return len(c.names)
}

// Get returns a tool definition by name.
func (c *Catalog) Get(name string) (llm.ToolDefinition, bool) {
	def, ok := c.schemas[name]
	if !ok {
		return llm.ToolDefinition{}, false
	}
	return copyDefinition(def), true
}

// Has checks if a tool exists in the catalog.
func (c *Catalog) Has(name string) bool {
	_, ok := c.schemas[name]
	return ok
}

// Names returns all tool names in catalog order.
func (c *Catalog) Names() []string {
	return slices.Clone(c.names)
}

// Definitions returns every tool definition in catalog order.
func (c *Catalog) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, len(c.names))
	for i, name := range c.names {
		defs[i] = copyDefinition(c.schemas[name])
	}
	return defs
}

// List returns metadata for all tools in catalog order.
func (c *Catalog) List() []ToolMetadata {
	metadata := make([]ToolMetadata, len(c.names))
	for i, name := range c.names {
		meta := c.metadata[name]
		meta.Parameters = slices.Clone(meta.Parameters)
		metadata[i] = meta
	}
	return metadata
}

// Description returns a formatted description of all tools for prompts and logs.
func (c *Catalog) Description() string {
	var descriptions []string
	for _, name := range c.names {
		meta := c.metadata[name]
		var params []string
		for _, p := range meta.Parameters {
			required := "optional"
			if p.Required {
				required = "required"
			}
			params = append(params, fmt.Sprintf("  - %s (%s): %s [%s]",
				p.Name, p.ParamType, p.Description, required))
		}

		paramStr := strings.Join(params, "\n")
		descriptions = append(descriptions, fmt.Sprintf(
			"Tool: %s\nDescription: %s\nParameters:\n%s",
			meta.Name, meta.Description, paramStr))
	}

	return strings.Join(descriptions, "\n\n")
}

func copyDefinition(def llm.ToolDefinition) llm.ToolDefinition {
	props := make(map[string]llm.JSONSchemaProperty, len(def.Parameters.Properties))
	for k, v := range def.Parameters.Properties {
		props[k] = v
	}
	def.Parameters.Properties = props
	def.Parameters.Required = slices.Clone(def.Parameters.Required)
	return def
}
