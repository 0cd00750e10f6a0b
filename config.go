package bubblekit

// cloneConfig deep-copies a config map. Nested maps are cloned, scalar
// values are shared.
func cloneConfig(config map[string]interface{}) map[string]interface{} {
	if config == nil {
		return map[string]interface{}{}
	}
	clone := make(map[string]interface{}, len(config))
	for k, v := range config {
		if nested, ok := v.(map[string]interface{}); ok {
			clone[k] = cloneConfig(nested)
			continue
		}
		clone[k] = v
	}
	return clone
}

// mergeColors performs the two-level color merge: for each group in the
// incoming patch (bubble, header, or any other nested group), if both
// sides are maps they are shallow-merged with the patch winning on
// conflicts; otherwise the incoming value replaces the existing one.
func mergeColors(existing, incoming map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(existing)+len(incoming))
	for k, v := range existing {
		merged[k] = v
	}
	for group, value := range incoming {
		incomingGroup, incomingIsMap := value.(map[string]interface{})
		currentGroup, currentIsMap := merged[group].(map[string]interface{})
		if !incomingIsMap || !currentIsMap {
			merged[group] = value
			continue
		}
		groupMerged := make(map[string]interface{}, len(currentGroup)+len(incomingGroup))
		for k, v := range currentGroup {
			groupMerged[k] = v
		}
		for k, v := range incomingGroup {
			groupMerged[k] = v
		}
		merged[group] = groupMerged
	}
	return merged
}
