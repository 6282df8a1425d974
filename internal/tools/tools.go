// Package tools defines the operations the model may invoke during a
// chat exchange.
package tools

import (
	"context"
	"fmt"

	"github.com/icetonges/mything/internal/llm"
)

// Result is the uniform outcome of every tool invocation. Handlers never
// return a Go error or panic across the registry boundary — any underlying
// failure becomes {Success:false, Error}.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(data any) Result { return Result{Success: true, Data: data} }

func fail(msg string) Result { return Result{Success: false, Error: msg} }

// Tool pairs a catalog declaration with its handler.
type Tool struct {
	Decl    llm.ToolDecl
	Handler func(ctx context.Context, args map[string]any) Result
}

// Registry holds the closed set of tools. The catalog is immutable after
// construction; every declared name has exactly one handler.
type Registry struct {
	tools map[string]*Tool
	order []string
}

// NewRegistry builds the registry from the given tools. It panics on a
// duplicate name or a declaration without a handler — both are programmer
// errors caught at process start, not runtime conditions.
func NewRegistry(ts ...*Tool) *Registry {
	r := &Registry{tools: make(map[string]*Tool, len(ts))}
	for _, t := range ts {
		if t.Decl.Name == "" || t.Handler == nil {
			panic(fmt.Sprintf("tool %q missing name or handler", t.Decl.Name))
		}
		if _, dup := r.tools[t.Decl.Name]; dup {
			panic(fmt.Sprintf("duplicate tool: %s", t.Decl.Name))
		}
		r.tools[t.Decl.Name] = t
		r.order = append(r.order, t.Decl.Name)
	}
	return r
}

// Declarations returns the tool catalog in registration order, for
// publication to the model.
func (r *Registry) Declarations() []llm.ToolDecl {
	decls := make([]llm.ToolDecl, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.tools[name].Decl)
	}
	return decls
}

// Execute runs a tool by name. An unknown name yields a failed Result —
// it is delivered back to the model as data and never aborts the exchange.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) Result {
	t, found := r.tools[name]
	if !found {
		return fail(fmt.Sprintf("Unknown tool: %s", name))
	}
	return t.Handler(ctx, args)
}

// Argument coercion helpers. Model-produced arguments arrive as
// map[string]any decoded from JSON, so numbers are float64.

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return def
	}
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, found := args[key].([]any)
	if !found {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, isStr := item.(string); isStr {
			out = append(out, s)
		}
	}
	return out
}

// clamp bounds a limit to [1, max], substituting def when unset.
func clamp(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
