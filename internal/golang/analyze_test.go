package golang

import (
	"reflect"
	"strings"
	"testing"

	"trackscan/internal/schema"
)

const fixtureSrc = `package main

import (
	"context"
	"log"
)

func recordCustom(eventName string, params map[string]any) {
	log.Printf("%s %+v", eventName, params)
}

func segmentTrack(userId string) {
	client := analytics.New("KEY")
	client.Enqueue(analytics.Track{
		UserId: userId,
		Event:  "Signed Up",
		Properties: analytics.NewProperties().
			Set("plan", "Enterprise").
			Set("is_free_trial", true),
	})
}

func mixpanelTrack(userId string, price float64) {
	mp := mixpanel.NewApiClient("TOKEN")
	ctx := context.Background()
	mp.Track(ctx, []*mixpanel.Event{
		mp.NewEvent("some_event", userId, map[string]any{
			"plan":  "premium",
			"price": price,
		}),
	})
}

func amplitudeTrack(isFreeTrial bool) {
	config := amplitude.NewConfig("API_KEY")
	client := amplitude.NewClient(config)
	client.Track(amplitude.Event{
		UserID:    "user-id",
		EventType: "Button Clicked",
		EventProperties: map[string]any{
			"name":          "Checkout",
			"a property":    "a value",
			"is_free_trial": isFreeTrial,
		},
		EventOptions: amplitude.EventOptions{
			Price: 1.99,
		},
	})
}

func posthogTrack(plan string, isFreeTrial bool) {
	client, err := posthog.NewWithConfig("API_KEY", posthog.Config{})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()
	client.Enqueue(posthog.Capture{
		DistinctId: "distinct-id",
		Event:      "user_signed_up",
		Properties: posthog.NewProperties().
			Set("login_type", "email").
			Set("plan", plan).
			Set("is_free_trial", isFreeTrial),
	})
}

func snowplowTrack(property string, value float64) {
	emitter := sp.InitEmitter(sp.RequireCollectorUri("collector.example.com"))
	tracker := sp.InitTracker(sp.RequireEmitter(emitter))
	tracker.TrackStructEvent(sp.StructuredEvent{
		Action:   sp.NewString("add-to-basket"),
		Category: sp.NewString("test"),
		Property: sp.NewString(property),
		Value:    sp.NewFloat64(value),
	})
}

func main() {
	var baz int = 42
	var list []string = []string{"a", "b"}
	var obj map[string]any = map[string]any{
		"a": 1,
		"c": "s",
	}
	recordCustom("custom_event", map[string]any{
		"foo":  "bar",
		"baz":  baz,
		"list": list,
		"obj":  obj,
	})
}
`

func analyzeOK(t *testing.T, path, src, custom string) []*schema.TrackingEvent {
	t.Helper()
	events, err := Analyze(path, src, custom)
	if err != nil {
		t.Fatalf("Analyze(%s) failed: %v", path, err)
	}
	return events
}

func findEvent(t *testing.T, events []*schema.TrackingEvent, name string) *schema.TrackingEvent {
	t.Helper()
	for _, ev := range events {
		if ev.EventName == name {
			return ev
		}
	}
	t.Fatalf("event %q not found in %d events", name, len(events))
	return nil
}

func propType(t *testing.T, ev *schema.TrackingEvent, key string) string {
	t.Helper()
	p, ok := ev.Properties[key]
	if !ok || p == nil {
		t.Fatalf("event %q has no property %q (have %v)", ev.EventName, key, propKeys(ev))
	}
	return p.Type
}

func propKeys(ev *schema.TrackingEvent) []string {
	keys := make([]string, 0, len(ev.Properties))
	for k := range ev.Properties {
		keys = append(keys, k)
	}
	return keys
}

func TestAnalyzeFixture(t *testing.T) {
	events := analyzeOK(t, "fixture.go", fixtureSrc, "recordCustom")
	if len(events) != 6 {
		t.Fatalf("event count = %d, want 6", len(events))
	}

	seg := findEvent(t, events, "Signed Up")
	if seg.Source != schema.SourceSegment || seg.FunctionName != "segmentTrack" || seg.FilePath != "fixture.go" {
		t.Errorf("segment event = %+v", seg)
	}
	if len(seg.Properties) != 3 {
		t.Errorf("segment properties = %v, want UserId, plan, is_free_trial", propKeys(seg))
	}
	if propType(t, seg, "UserId") != schema.TypeString ||
		propType(t, seg, "plan") != schema.TypeString ||
		propType(t, seg, "is_free_trial") != schema.TypeBoolean {
		t.Errorf("segment property types = %+v", seg.Properties)
	}

	mix := findEvent(t, events, "some_event")
	if mix.Source != schema.SourceMixpanel || mix.FunctionName != "mixpanelTrack" {
		t.Errorf("mixpanel event = %+v", mix)
	}
	if propType(t, mix, "DistinctId") != schema.TypeString ||
		propType(t, mix, "plan") != schema.TypeString ||
		propType(t, mix, "price") != schema.TypeNumber {
		t.Errorf("mixpanel property types = %+v", mix.Properties)
	}

	amp := findEvent(t, events, "Button Clicked")
	if amp.Source != schema.SourceAmplitude {
		t.Errorf("amplitude event = %+v", amp)
	}
	if _, ok := amp.Properties["EventType"]; ok {
		t.Error("amplitude event-name carrier leaked into properties")
	}
	if propType(t, amp, "UserID") != schema.TypeString ||
		propType(t, amp, "name") != schema.TypeString ||
		propType(t, amp, "a property") != schema.TypeString ||
		propType(t, amp, "is_free_trial") != schema.TypeBoolean ||
		propType(t, amp, "Price") != schema.TypeNumber {
		t.Errorf("amplitude property types = %+v", amp.Properties)
	}

	ph := findEvent(t, events, "user_signed_up")
	if ph.Source != schema.SourcePostHog {
		t.Errorf("posthog event = %+v", ph)
	}
	if propType(t, ph, "DistinctId") != schema.TypeString ||
		propType(t, ph, "login_type") != schema.TypeString ||
		propType(t, ph, "plan") != schema.TypeString ||
		propType(t, ph, "is_free_trial") != schema.TypeBoolean {
		t.Errorf("posthog property types = %+v", ph.Properties)
	}

	sp := findEvent(t, events, "add-to-basket")
	if sp.Source != schema.SourceSnowplow {
		t.Errorf("snowplow event = %+v", sp)
	}
	if _, ok := sp.Properties["Action"]; ok {
		t.Error("snowplow event-name carrier leaked into properties")
	}
	if propType(t, sp, "Category") != schema.TypeString ||
		propType(t, sp, "Property") != schema.TypeString ||
		propType(t, sp, "Value") != schema.TypeNumber {
		t.Errorf("snowplow property types = %+v", sp.Properties)
	}

	cus := findEvent(t, events, "custom_event")
	if cus.Source != schema.SourceCustom || cus.FunctionName != "main" {
		t.Errorf("custom event = %+v", cus)
	}
	if propType(t, cus, "foo") != schema.TypeString ||
		propType(t, cus, "baz") != schema.TypeNumber ||
		propType(t, cus, "list") != schema.TypeArray {
		t.Errorf("custom property types = %+v", cus.Properties)
	}
	obj := cus.Properties["obj"]
	if obj == nil || obj.Type != schema.TypeObject {
		t.Fatalf("obj property = %+v", obj)
	}
	if obj.Properties["a"].Type != schema.TypeNumber || obj.Properties["c"].Type != schema.TypeString {
		t.Errorf("obj nested properties = %+v", obj.Properties)
	}
}

func TestAnalyzeWithoutCustomFunction(t *testing.T) {
	events := analyzeOK(t, "fixture.go", fixtureSrc, "")
	if len(events) != 5 {
		t.Fatalf("event count = %d, want 5 without a custom function", len(events))
	}
	for _, ev := range events {
		if ev.Source == schema.SourceCustom {
			t.Errorf("unexpected custom event %+v", ev)
		}
	}
	events = analyzeOK(t, "fixture.go", fixtureSrc, "someOtherName")
	if len(events) != 5 {
		t.Errorf("event count with mismatched custom name = %d, want 5", len(events))
	}
}

func TestAnalyzeAmplitudeWrapperCollapses(t *testing.T) {
	src := `package main

func checkout() {
	ev := amplitude.Event{
		EventType: "Checkout Started",
		UserID:    "u1",
	}
	log.Println("sending")
	client.Track(ev)
}
`
	events := analyzeOK(t, "checkout.go", src, "")
	if len(events) != 1 {
		t.Fatalf("event count = %d, want 1 after dedup", len(events))
	}
	ev := events[0]
	if ev.EventName != "Checkout Started" || ev.Source != schema.SourceAmplitude {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Line != 4 {
		t.Errorf("line = %d, want 4 (the struct literal, not the wrapper call)", ev.Line)
	}
	if propType(t, ev, "UserID") != schema.TypeString {
		t.Errorf("properties = %+v", ev.Properties)
	}
}

func TestDeduplicate(t *testing.T) {
	amp := func(line int) *schema.TrackingEvent {
		return &schema.TrackingEvent{EventName: "E", Source: schema.SourceAmplitude, FunctionName: "f", Line: line}
	}
	out := Deduplicate([]*schema.TrackingEvent{amp(55), amp(40), amp(60)})
	if len(out) != 1 || out[0].Line != 40 {
		t.Errorf("amplitude dedup = %+v, want single record at line 40", out)
	}

	seg := func(line int) *schema.TrackingEvent {
		return &schema.TrackingEvent{EventName: "E", Source: schema.SourceSegment, FunctionName: "f", Line: line}
	}
	out = Deduplicate([]*schema.TrackingEvent{seg(55), seg(40)})
	if len(out) != 1 || out[0].Line != 55 {
		t.Errorf("segment dedup = %+v, want first occurrence at line 55", out)
	}

	// distinct functions stay distinct
	other := seg(70)
	other.FunctionName = "g"
	out = Deduplicate([]*schema.TrackingEvent{seg(55), other})
	if len(out) != 2 {
		t.Errorf("events in different functions collapsed: %+v", out)
	}
}

func TestAnalyzeDepthGuard(t *testing.T) {
	deep := strings.Repeat("wrap(", 30) + `analytics.Track{Event: "Deep"}` + strings.Repeat(")", 30)
	src := "package main\n\nfunc f() {\n\tuse(" + deep + ")\n}\n"
	events := analyzeOK(t, "deep.go", src, "")
	if len(events) != 0 {
		t.Errorf("literal nested beyond the depth limit still extracted: %+v", events)
	}

	shallow := "package main\n\nfunc g() {\n\tuse(wrap(analytics.Track{Event: \"Shallow\"}))\n}\n"
	events = analyzeOK(t, "shallow.go", shallow, "")
	if len(events) != 1 || events[0].EventName != "Shallow" {
		t.Errorf("shallow literal not extracted: %+v", events)
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := analyzeOK(t, "fixture.go", fixtureSrc, "recordCustom")
	b := analyzeOK(t, "fixture.go", fixtureSrc, "recordCustom")
	if !reflect.DeepEqual(a, b) {
		t.Error("two analyses of the same source differ")
	}
}

func TestAnalyzeMalformedFails(t *testing.T) {
	if _, err := Analyze("bad.go", "/* never closed", ""); err == nil {
		t.Error("unterminated comment did not fail analysis")
	}
	if _, err := Analyze("bad.go", "package main\n\nfunc f( {\n", ""); err == nil {
		t.Error("unbalanced source did not fail analysis")
	}
}

func TestSchemaTypeOf(t *testing.T) {
	cases := map[string]string{
		"string":         schema.TypeString,
		"*string":        schema.TypeString,
		"bool":           schema.TypeBoolean,
		"int":            schema.TypeNumber,
		"int64":          schema.TypeNumber,
		"float32":        schema.TypeNumber,
		"byte":           schema.TypeNumber,
		"[]string":       schema.TypeArray,
		"[4]int":         schema.TypeArray,
		"...string":      schema.TypeArray,
		"map[string]any": schema.TypeObject,
		"any":            schema.TypeAny,
		"interface{}":    schema.TypeAny,
		"Unknown":        schema.TypeAny,
		"":               schema.TypeAny,
	}
	for goType, want := range cases {
		if got := schemaTypeOf(goType, nil); got != want {
			t.Errorf("schemaTypeOf(%q) = %q, want %q", goType, got, want)
		}
	}
}
