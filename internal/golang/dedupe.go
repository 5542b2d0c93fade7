// # internal/golang/dedupe.go
package golang

import "trackscan/internal/schema"

type dedupKey struct {
	name     string
	source   schema.Source
	function string
}

// Deduplicate collapses repeated detections of the same logical event,
// keyed by event name, source, and enclosing function. The first
// occurrence wins, except amplitude events keep the smallest line: the
// struct-literal site is preferred over the wrapper call that encloses
// it.
func Deduplicate(events []*schema.TrackingEvent) []*schema.TrackingEvent {
	out := make([]*schema.TrackingEvent, 0, len(events))
	seen := make(map[dedupKey]int)
	for _, ev := range events {
		key := dedupKey{name: ev.EventName, source: ev.Source, function: ev.FunctionName}
		if i, ok := seen[key]; ok {
			if ev.Source == schema.SourceAmplitude && ev.Line < out[i].Line {
				out[i] = ev
			}
			continue
		}
		seen[key] = len(out)
		out = append(out, ev)
	}
	return out
}
