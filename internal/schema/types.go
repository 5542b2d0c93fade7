package schema

// Source identifies the analytics destination a tracking call reports to.
type Source string

const (
	SourceSegment         Source = "segment"
	SourcePostHog         Source = "posthog"
	SourceAmplitude       Source = "amplitude"
	SourceMixpanel        Source = "mixpanel"
	SourceSnowplow        Source = "snowplow"
	SourceRudderstack     Source = "rudderstack"
	SourceGoogleAnalytics Source = "googleanalytics"
	SourceCustom          Source = "custom"
)

// Property schema types, JSON-schema-like.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeNull    = "null"
	TypeObject  = "object"
	TypeArray   = "array"
	TypeAny     = "any"
)

// PropertySchema describes the inferred shape of one event property.
// Properties is populated for objects, Items for arrays.
type PropertySchema struct {
	Type        string          `yaml:"type" json:"type"`
	Description string          `yaml:"description,omitempty" json:"description,omitempty"`
	Properties  PropertyMap     `yaml:"properties,omitempty" json:"properties,omitempty"`
	Items       *PropertySchema `yaml:"items,omitempty" json:"items,omitempty"`
}

// TrackingEvent is one detected tracking call site.
type TrackingEvent struct {
	EventName    string
	Source       Source
	Properties   map[string]*PropertySchema
	FilePath     string
	Line         int
	FunctionName string
}

// Implementation records one call site of an aggregated event.
type Implementation struct {
	Path        string `yaml:"path" json:"path"`
	Line        int    `yaml:"line" json:"line"`
	Function    string `yaml:"function" json:"function"`
	Destination Source `yaml:"destination" json:"destination"`
}

// Event is the aggregated view of all call sites sharing one event name.
type Event struct {
	Description     string           `yaml:"description,omitempty" json:"description,omitempty"`
	Implementations []Implementation `yaml:"implementations" json:"implementations"`
	Properties      PropertyMap      `yaml:"properties" json:"properties"`
}

// RepoMeta carries git metadata for the scanned tree.
type RepoMeta struct {
	Repository string `yaml:"repository,omitempty" json:"repository,omitempty"`
	Commit     string `yaml:"commit,omitempty" json:"commit,omitempty"`
	Timestamp  string `yaml:"timestamp,omitempty" json:"timestamp,omitempty"`
}

// Schema is the full output document.
type Schema struct {
	Version int       `yaml:"version" json:"version"`
	Source  *RepoMeta `yaml:"source,omitempty" json:"source,omitempty"`
	Events  EventMap  `yaml:"events" json:"events"`
}

// EventMap and PropertyMap are named so YAML serialization can emit their
// keys in sorted order; Go map iteration order would make output churn
// between otherwise identical runs.
type EventMap map[string]*Event

type PropertyMap map[string]*PropertySchema

// EventCount returns the number of distinct event names.
func (s *Schema) EventCount() int {
	return len(s.Events)
}

// ImplementationCount returns the number of call sites across all events.
func (s *Schema) ImplementationCount() int {
	n := 0
	for _, ev := range s.Events {
		n += len(ev.Implementations)
	}
	return n
}

// PropertyCount returns the number of top-level properties across all
// events.
func (s *Schema) PropertyCount() int {
	n := 0
	for _, ev := range s.Events {
		n += len(ev.Properties)
	}
	return n
}

// CountBySource returns call-site counts keyed by destination.
func (s *Schema) CountBySource() map[Source]int {
	counts := make(map[Source]int)
	for _, ev := range s.Events {
		for _, impl := range ev.Implementations {
			counts[impl.Destination]++
		}
	}
	return counts
}
