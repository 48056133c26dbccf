package tools

import (
	"fmt"
)

// Definition is the static specification of a callable tool. Mutating is a
// declared property, not inferred from the name: the orchestrator uses it to
// decide whether a call needs human confirmation before executing.
type Definition struct {
	Name        string
	Description string
	Properties  map[string]interface{}
	Required    []string
	Mutating    bool
}

// Schema renders the definition in the OpenAI function-calling format.
func (d Definition) Schema() map[string]interface{} {
	params := map[string]interface{}{
		"type":       "object",
		"properties": d.Properties,
	}
	if len(d.Required) > 0 {
		params["required"] = d.Required
	}
	return map[string]interface{}{
		"type": "function",
		"function": map[string]interface{}{
			"name":        d.Name,
			"description": d.Description,
			"parameters":  params,
		},
	}
}

// Registry is a static catalog of tool definitions. It has no side effects;
// execution lives in the Executor.
type Registry struct {
	defs  map[string]Definition
	order []string
}

// NewRegistry builds the registry with the full CRM tool catalog.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]Definition)}
	for _, def := range catalog {
		r.register(def)
	}
	return r
}

func (r *Registry) register(def Definition) {
	if _, exists := r.defs[def.Name]; exists {
		panic(fmt.Sprintf("tools: duplicate definition %q", def.Name))
	}
	r.defs[def.Name] = def
	r.order = append(r.order, def.Name)
}

// Schemas returns the tool catalog in the order of registration, ready to
// attach to an LLM request.
func (r *Registry) Schemas() []map[string]interface{} {
	schemas := make([]map[string]interface{}, 0, len(r.order))
	for _, name := range r.order {
		schemas = append(schemas, r.defs[name].Schema())
	}
	return schemas
}

// Lookup returns the definition for a tool name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// IsMutating reports whether a tool creates, updates, or deletes records.
// Unknown tools are treated as mutating so nothing unrecognized can
// auto-execute.
func (r *Registry) IsMutating(name string) bool {
	def, ok := r.defs[name]
	if !ok {
		return true
	}
	return def.Mutating
}

// ValidateArgs checks that every declared required parameter is present.
func (r *Registry) ValidateArgs(name string, args map[string]interface{}) error {
	def, ok := r.defs[name]
	if !ok {
		return fmt.Errorf("unknown tool %q", name)
	}
	for _, param := range def.Required {
		if _, present := args[param]; !present {
			return fmt.Errorf("tool %s: missing required parameter %q", name, param)
		}
	}
	return nil
}
