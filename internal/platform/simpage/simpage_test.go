package simpage_test

import (
	"errors"
	"testing"

	"github.com/framepulse/framepulse/internal/platform"
	"github.com/framepulse/framepulse/internal/platform/simpage"
)

func TestObserveUnsupportedKind(t *testing.T) {
	page := simpage.New()
	page.Disable(platform.KindLongTask)

	_, err := page.Observe(platform.KindLongTask, func(platform.Entry) {})
	if !errors.Is(err, platform.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := page.Observe(platform.KindPaint, func(platform.Entry) {}); err != nil {
		t.Fatalf("expected paint stream supported, got %v", err)
	}
}

func TestSetAttributeReportsMutationAndStyleWrite(t *testing.T) {
	page := simpage.New()

	var writes []platform.Entry
	if _, err := page.Observe(platform.KindStyleWrite, func(e platform.Entry) {
		writes = append(writes, e)
	}); err != nil {
		t.Fatalf("observe failed: %v", err)
	}

	parent := page.NewElement("div")
	child := page.NewElement("span")
	parent.Append(child)

	var muts []platform.Mutation
	parent.ObserveMutations(func(m platform.Mutation) { muts = append(muts, m) })

	child.SetAttribute("class", "active")

	if len(writes) != 1 || writes[0].Attribute != "class" {
		t.Errorf("expected one style-write for class, got %v", writes)
	}
	if len(muts) != 1 || muts[0].Attribute != "class" {
		t.Errorf("expected subtree observer to see child mutation, got %v", muts)
	}
}

func TestDescendantCountIncludesSelf(t *testing.T) {
	page := simpage.New()
	root := page.NewElement("div")
	mid := page.NewElement("ul")
	root.Append(mid)
	mid.Append(page.NewElement("li"))
	mid.Append(page.NewElement("li"))

	if got := root.DescendantCount(); got != 4 {
		t.Errorf("expected 4 elements, got %d", got)
	}
}

func TestQueryResolvesRegisteredSelectors(t *testing.T) {
	page := simpage.New()
	btn := page.NewElement("button")
	page.Register("#save", btn)

	if el, ok := page.Document().Query("#save"); !ok || el != platform.Element(btn) {
		t.Error("expected registered selector to resolve")
	}
	if _, ok := page.Document().Query("#missing"); ok {
		t.Error("expected unregistered selector to miss")
	}
	if _, ok := page.Document().Query("  "); ok {
		t.Error("expected blank selector to miss")
	}
}

func TestEmitFrameAdvancesClock(t *testing.T) {
	page := simpage.New()
	var stamps []float64
	if _, err := page.OnFrame(func(ts float64) { stamps = append(stamps, ts) }); err != nil {
		t.Fatalf("onframe failed: %v", err)
	}

	page.EmitFrame(16)
	page.EmitFrame(20)

	if len(stamps) != 2 || stamps[0] != 16 || stamps[1] != 36 {
		t.Errorf("expected stamps [16 36], got %v", stamps)
	}
	if page.Now() != 36 {
		t.Errorf("expected clock at 36, got %g", page.Now())
	}
}
