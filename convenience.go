// FILE: okube-ai/settus/convenience.go
package settus

import (
	"context"
	"fmt"
	"strings"
)

// Load constructs settings into target with a single call, using the
// target's own options and the standard source precedence.
// This is the recommended way to load settings for most applications
func Load(ctx context.Context, target any, init map[string]any) (*Resolution, error) {
	return NewBuilder().
		WithTarget(target).
		WithInit(init).
		Build(ctx)
}

// MustLoad is like Load but panics on error
func MustLoad(ctx context.Context, target any, init map[string]any) *Resolution {
	res, err := Load(ctx, target, init)
	if err != nil {
		panic(fmt.Sprintf("settings initialization failed: %v", err))
	}
	return res
}

// Debug returns a formatted listing of every resolved field and the source
// that supplied it. Values are never printed.
func (r *Resolution) Debug() string {
	var b strings.Builder
	b.WriteString("Settings Origins:\n")
	b.WriteString("=================\n")

	for _, name := range sortedKeys(r.values) {
		fmt.Fprintf(&b, "%s: %s\n", name, r.origins[name])
	}

	return b.String()
}
