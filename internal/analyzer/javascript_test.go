// # internal/analyzer/javascript_test.go
package analyzer

import (
	"testing"

	"trackscan/internal/schema"
)

const javascriptFixture = `const DEFAULT_PLAN = "free";

function signup(userId) {
  analytics.track("User Signed Up", {
    method: "email",
    plan: DEFAULT_PLAN,
    isFreeTrial: true,
  });
}

function purchase(price) {
  mixpanel.track("Purchase Completed", {
    price,
    items: ["basic", "addon"],
  });
}

const capturePage = (path) => {
  posthog.capture("page_viewed", {
    path: path,
    referrer: document.referrer,
  });
};

function clicks(element) {
  amplitude.track("Button Clicked", { element: "cta", count: 3 });
  client.logEvent("Legacy Click", { source: "web" });
}

function basket() {
  tracker.track(buildStructEvent({
    action: "add-to-basket",
    category: "shop",
    value: -2.5,
  }));
}

function pageview(title) {
  gtag("event", "page_view", {
    page_title: title,
    page_location: "https://example.com/",
  });
  gtag("config", "G-XYZ");
}

function login() {
  rudderanalytics.track("User Logged In", { plan: DEFAULT_PLAN });
}

function report() {
  logCustomEvent("custom_event", { nested: { depth: 1 }, tags: [1, "two"] });
}
`

func analyzeScript(t *testing.T, language, path, src, custom string) []schema.TrackingEvent {
	t.Helper()
	a, err := newScriptAnalyzer(language)
	if err != nil {
		t.Fatalf("newScriptAnalyzer(%q) failed: %v", language, err)
	}
	events, err := a.Analyze(path, []byte(src), custom)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return events
}

func TestJavaScriptFixture(t *testing.T) {
	events := analyzeScript(t, "javascript", "app.js", javascriptFixture, "logCustomEvent")
	if len(events) != 9 {
		for _, ev := range events {
			t.Logf("event %q source %s line %d", ev.EventName, ev.Source, ev.Line)
		}
		t.Fatalf("Expected 9 events, got %d", len(events))
	}
	byName := eventsByName(events)

	signup := byName["User Signed Up"]
	if signup.Source != schema.SourceSegment || signup.FunctionName != "signup" || signup.Line != 4 {
		t.Errorf("Unexpected segment event: %+v", signup)
	}
	if got := propType(t, signup, "plan"); got != schema.TypeString {
		t.Errorf("plan type = %s, want module const resolved to string", got)
	}
	if got := propType(t, signup, "isFreeTrial"); got != schema.TypeBoolean {
		t.Errorf("isFreeTrial type = %s", got)
	}

	purchase := byName["Purchase Completed"]
	if purchase.Source != schema.SourceMixpanel {
		t.Errorf("Unexpected mixpanel event: %+v", purchase)
	}
	if got := propType(t, purchase, "price"); got != schema.TypeAny {
		t.Errorf("price type = %s, want any for untyped shorthand", got)
	}
	items := purchase.Properties["items"]
	if items == nil || items.Type != schema.TypeArray || items.Items == nil || items.Items.Type != schema.TypeString {
		t.Errorf("Expected items array of string, got %+v", items)
	}

	page := byName["page_viewed"]
	if page.Source != schema.SourcePostHog || page.FunctionName != "capturePage" {
		t.Errorf("Unexpected posthog event: %+v", page)
	}
	if _, ok := page.Properties["referrer"]; ok {
		t.Error("Expected member-expression value to be dropped")
	}
	if len(page.Properties) != 1 {
		t.Errorf("Expected only path, got %v", page.Properties)
	}

	click := byName["Button Clicked"]
	if click.Source != schema.SourceAmplitude || click.Line != 26 {
		t.Errorf("Unexpected amplitude event: %+v", click)
	}
	if got := propType(t, click, "count"); got != schema.TypeNumber {
		t.Errorf("count type = %s", got)
	}

	legacy := byName["Legacy Click"]
	if legacy.Source != schema.SourceAmplitude {
		t.Errorf("Expected logEvent method to map to amplitude: %+v", legacy)
	}

	basket := byName["add-to-basket"]
	if basket.Source != schema.SourceSnowplow || basket.FunctionName != "basket" {
		t.Errorf("Unexpected snowplow event: %+v", basket)
	}
	if _, ok := basket.Properties["action"]; ok {
		t.Error("Expected action carrier excluded from snowplow properties")
	}
	if got := propType(t, basket, "value"); got != schema.TypeNumber {
		t.Errorf("value type = %s, want number for negated literal", got)
	}

	pageview := byName["page_view"]
	if pageview.Source != schema.SourceGoogleAnalytics || pageview.Line != 39 {
		t.Errorf("Unexpected gtag event: %+v", pageview)
	}
	if got := propType(t, pageview, "page_location"); got != schema.TypeString {
		t.Errorf("page_location type = %s", got)
	}
	if _, ok := byName["G-XYZ"]; ok {
		t.Error("Expected gtag('config', ...) to be ignored")
	}

	login := byName["User Logged In"]
	if login.Source != schema.SourceRudderstack {
		t.Errorf("Unexpected rudderstack event: %+v", login)
	}

	custom := byName["custom_event"]
	if custom.Source != schema.SourceCustom || custom.FunctionName != "report" {
		t.Errorf("Unexpected custom event: %+v", custom)
	}
	nested := custom.Properties["nested"]
	if nested == nil || nested.Type != schema.TypeObject {
		t.Fatalf("Expected nested object, got %+v", nested)
	}
	if prop := nested.Properties["depth"]; prop == nil || prop.Type != schema.TypeNumber {
		t.Errorf("Expected nested.depth number, got %+v", prop)
	}
	tags := custom.Properties["tags"]
	if tags == nil || tags.Type != schema.TypeArray || tags.Items == nil || tags.Items.Type != schema.TypeString {
		t.Errorf("Expected mixed number/string array to widen to string, got %+v", tags)
	}
}

func TestJavaScriptTemplateNames(t *testing.T) {
	src := "function go(kind) {\n" +
		"  analytics.track(`cta_clicked`, { kind: `primary` });\n" +
		"  analytics.track(`cta_${kind}`, { kind: \"x\" });\n" +
		"}\n"
	events := analyzeScript(t, "javascript", "app.js", src, "")
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.EventName != "cta_clicked" {
		t.Errorf("Expected substitution-free template accepted, got %q", ev.EventName)
	}
	if got := propType(t, ev, "kind"); got != schema.TypeString {
		t.Errorf("kind type = %s", got)
	}
}

func TestJavaScriptCallbackScope(t *testing.T) {
	src := `function submit(items) {
  const plan = "pro";
  items.forEach((item) => {
    analytics.track("Item Added", { plan: plan, item: item });
  });
}
`
	events := analyzeScript(t, "javascript", "app.js", src, "")
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.FunctionName != "submit" {
		t.Errorf("Expected callback attributed to enclosing function, got %q", ev.FunctionName)
	}
	if got := propType(t, ev, "plan"); got != schema.TypeString {
		t.Errorf("plan type = %s, want enclosing const resolved", got)
	}
	if got := propType(t, ev, "item"); got != schema.TypeAny {
		t.Errorf("item type = %s", got)
	}
}

func TestJavaScriptAssignmentTracking(t *testing.T) {
	src := `function profile() {
  let status;
  status = "active";
  analytics.track("Profile Saved", { status });
}
`
	events := analyzeScript(t, "javascript", "app.js", src, "")
	if len(events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(events))
	}
	if got := propType(t, events[0], "status"); got != schema.TypeString {
		t.Errorf("status type = %s", got)
	}
}

func TestJavaScriptChainedReceiverIgnored(t *testing.T) {
	src := `function deep() {
  this.analytics.track("Nested Receiver", { a: 1 });
  window.analytics.identify("u1");
}
`
	events := analyzeScript(t, "javascript", "app.js", src, "")
	if len(events) != 0 {
		t.Errorf("Expected chained receivers to be ignored, got %d events", len(events))
	}
}
