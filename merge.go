// FILE: okube-ai/settus/merge.go
package settus

// DeepMerge combines canonical mappings, index 0 being the highest priority.
// For each key the highest-priority layer containing it wins; when the values
// are maps in several layers they are merged recursively with the same rule.
// The inputs are never mutated and nested maps in the result are copies.
func DeepMerge(layers ...map[string]any) map[string]any {
	merged := make(map[string]any)
	// Apply from lowest to highest priority so higher layers overwrite
	for i := len(layers) - 1; i >= 0; i-- {
		mergeInto(merged, layers[i])
	}
	return merged
}

// mergeInto layers src over dst. Every map stored in dst is owned by dst.
func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		srcMap, srcIsMap := value.(map[string]any)
		if !srcIsMap {
			dst[key] = value
			continue
		}
		if dstMap, dstIsMap := dst[key].(map[string]any); dstIsMap {
			mergeInto(dstMap, srcMap)
			continue
		}
		dst[key] = cloneMap(srcMap)
	}
}

// mergeOrigins records, per top-level key, the highest-priority layer that
// supplied it.
func mergeOrigins(layers []map[string]any, names []Source) map[string]Source {
	origins := make(map[string]Source)
	for i, layer := range layers {
		for key := range layer {
			if _, seen := origins[key]; !seen {
				origins[key] = names[i]
			}
		}
	}
	return origins
}
