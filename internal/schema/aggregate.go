package schema

// Aggregate merges per-file event lists into the combined schema. Events
// sharing a name contribute call sites to one entry; their properties merge
// per key, widening to "any" on type conflict.
func Aggregate(events []TrackingEvent) EventMap {
	out := make(EventMap)
	for _, ev := range events {
		entry, ok := out[ev.EventName]
		if !ok {
			entry = &Event{Properties: make(PropertyMap)}
			out[ev.EventName] = entry
		}
		entry.Implementations = append(entry.Implementations, Implementation{
			Path:        ev.FilePath,
			Line:        ev.Line,
			Function:    ev.FunctionName,
			Destination: ev.Source,
		})
		for name, prop := range ev.Properties {
			entry.Properties[name] = MergeProperty(entry.Properties[name], prop)
		}
	}
	return out
}

// NewSchema wraps aggregated events with version and repository metadata.
func NewSchema(events []TrackingEvent, meta *RepoMeta) *Schema {
	return &Schema{
		Version: 1,
		Source:  meta,
		Events:  Aggregate(events),
	}
}

// MergeProperty combines two inferred schemas for the same property name.
// Matching types merge structurally; disagreeing types collapse to "any".
func MergeProperty(existing, incoming *PropertySchema) *PropertySchema {
	if incoming == nil {
		return existing
	}
	if existing == nil {
		return cloneProperty(incoming)
	}
	if existing.Type != incoming.Type {
		return &PropertySchema{Type: TypeAny}
	}

	merged := &PropertySchema{Type: existing.Type, Description: existing.Description}
	switch existing.Type {
	case TypeObject:
		merged.Properties = make(PropertyMap, len(existing.Properties))
		for name, prop := range existing.Properties {
			merged.Properties[name] = cloneProperty(prop)
		}
		for name, prop := range incoming.Properties {
			merged.Properties[name] = MergeProperty(merged.Properties[name], prop)
		}
	case TypeArray:
		merged.Items = MergeProperty(cloneProperty(existing.Items), incoming.Items)
	}
	return merged
}

func cloneProperty(p *PropertySchema) *PropertySchema {
	if p == nil {
		return nil
	}
	out := &PropertySchema{Type: p.Type, Description: p.Description}
	if p.Properties != nil {
		out.Properties = make(PropertyMap, len(p.Properties))
		for name, prop := range p.Properties {
			out.Properties[name] = cloneProperty(prop)
		}
	}
	out.Items = cloneProperty(p.Items)
	return out
}
