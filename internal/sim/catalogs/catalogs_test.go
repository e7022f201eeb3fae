package catalogs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"slicehouse.ai/internal/sim/anatomy"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

const archetypesJSON = `[
  {"id":"picky","name":"Picky","patience":0.5,"precision_bias":1.3,"speed_bias":1,"waste_sensitivity":2,"tip_multiplier":1.1}
]`

const day1JSON = `{
  "day": 1,
  "orders": [
    {"id":"D1-1","customer":"Mr. Mittens","archetype":"picky","time_limit_sec":60,
     "items":[{"species":"CAT","part":"FOOT","quantity":2,"min_quality":"NORMAL"}]},
    {"id":"D1-2","customer":"Walk-in","time_limit_sec":30,
     "items":[{"species":"dog","part":"hand","quantity":1}]}
  ]
}`

func TestLoad_BuildsOrders(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "archetypes.json"), archetypesJSON)
	writeFile(t, filepath.Join(dir, "days", "day1.json"), day1JSON)

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Archetypes.Digest == "" || c.Days.Digest == "" {
		t.Fatalf("digests missing")
	}
	if _, ok := c.Archetypes.ByID["neutral"]; !ok {
		t.Fatalf("neutral archetype must always exist")
	}
	got, err := c.Orders(1)
	if err != nil {
		t.Fatalf("Orders: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("orders=%d", len(got))
	}
	if got[0].TimeLimit != 30*time.Second || got[0].Remaining != 30*time.Second {
		t.Fatalf("patience must scale the limit: %v", got[0].TimeLimit)
	}
	it := got[0].Items[0]
	if it.Species != anatomy.Cat || it.Part != anatomy.Foot || it.Quantity != 2 || it.MinQuality != anatomy.QualityNormal {
		t.Fatalf("item %+v", it)
	}
	if got[1].Archetype.ID != "neutral" || got[1].Items[0].MinQuality != anatomy.QualityLow {
		t.Fatalf("defaults not applied: %+v", got[1])
	}

	again, _ := c.Orders(1)
	if again[0] == got[0] {
		t.Fatalf("Orders must build fresh values")
	}
	if _, err := c.Orders(7); err == nil {
		t.Fatalf("expected missing day error")
	}
	if days := c.DayNumbers(); len(days) != 1 || days[0] != 1 {
		t.Fatalf("days %v", days)
	}
}

func TestParseDay_SchemaRejects(t *testing.T) {
	bad := []string{
		`{"orders":[]}`,
		`{"day":1,"orders":[{"id":"x","customer":"c","time_limit_sec":0}]}`,
		`{"day":1,"orders":[{"id":"x","customer":"c","time_limit_sec":5,"items":[{"species":"CAT","part":"FOOT","quantity":0}]}]}`,
		`{"day":1,"orders":[],"extra":true}`,
	}
	for i, raw := range bad {
		if _, err := ParseDay([]byte(raw)); err == nil || !strings.Contains(err.Error(), "schema") {
			t.Fatalf("case %d: expected schema error, got %v", i, err)
		}
	}
}

func TestParseDay_SuggestsNames(t *testing.T) {
	raw := `{"day":2,"orders":[{"id":"x","customer":"c","time_limit_sec":5,"items":[{"species":"BUNNNY","part":"FOOT","quantity":1}]}]}`
	_, err := ParseDay([]byte(raw))
	if err == nil || !strings.Contains(err.Error(), "did you mean BUNNY?") {
		t.Fatalf("expected suggestion, got %v", err)
	}
	raw = `{"day":2,"orders":[{"id":"x","customer":"c","time_limit_sec":5,"items":[{"species":"CAT","part":"TENTACLE","quantity":1}]}]}`
	_, err = ParseDay([]byte(raw))
	if err == nil || strings.Contains(err.Error(), "did you mean") {
		t.Fatalf("expected plain error, got %v", err)
	}
}

func TestParseDay_NullItemsAllowed(t *testing.T) {
	d, err := ParseDay([]byte(`{"day":3,"orders":[{"id":"x","customer":"c","time_limit_sec":5,"items":null}]}`))
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if len(d.Orders) != 1 || len(d.Orders[0].Items) != 0 {
		t.Fatalf("unexpected %+v", d)
	}
}

func TestLoad_UnknownArchetype(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "archetypes.json"), archetypesJSON)
	writeFile(t, filepath.Join(dir, "days", "day1.json"),
		`{"day":1,"orders":[{"id":"a","customer":"c","archetype":"picki","time_limit_sec":5}]}`)
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "did you mean picky?") {
		t.Fatalf("expected archetype suggestion, got %v", err)
	}
}

func TestLoad_EmptyDirIsValid(t *testing.T) {
	c, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Days.ByDay) != 0 || len(c.Archetypes.ByID) != 1 {
		t.Fatalf("unexpected %+v", c)
	}
}

func TestLoad_RepoConfigs(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "..", "configs"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	days := c.DayNumbers()
	if len(days) != 2 || days[0] != 1 || days[1] != 2 {
		t.Fatalf("days=%v", days)
	}
	for _, d := range days {
		list, err := c.Orders(d)
		if err != nil || len(list) == 0 {
			t.Fatalf("day %d: %d orders, err=%v", d, len(list), err)
		}
	}
}
