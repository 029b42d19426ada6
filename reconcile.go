// FILE: okube-ai/settus/reconcile.go
package settus

// reconcile rewrites one source's output from matched keys to canonical field
// names. A value found under an alias is written to every field declaring
// that alias, replacing a canonical value for the same field, and the alias
// key itself is dropped. When several of a field's aliases are present, the
// first one in the field's declared order wins, so the result never depends
// on map iteration order.
// The input is left untouched.
func reconcile(out map[string]any, schema *Schema, idx AliasIndex) map[string]any {
	result := make(map[string]any, len(out))

	for key, v := range out {
		_, canonical := schema.index[key]
		_, isAlias := idx[key]
		if canonical || !isAlias {
			// Unknown keys (extra init values) are kept for the decoder to judge
			result[key] = v
		}
	}

	for _, f := range schema.fields {
		for _, alias := range f.Aliases {
			if v, ok := out[alias]; ok {
				result[f.Name] = v
				break
			}
		}
	}
	return result
}

// Reconcile is the exported form of the alias reconciler for callers that
// drive SecretSource snapshots themselves.
func Reconcile(out map[string]any, schema *Schema) map[string]any {
	return reconcile(out, schema, schema.AliasIndex())
}
