package types

// MergeContext returns a new map holding base overlaid with overlay. Keys in
// overlay win; nested maps are replaced, not merged. Neither input is modified.
func MergeContext(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}
