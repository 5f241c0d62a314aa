package dom

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/ripple/pkg/host"
)

func TestInsertBeforeAndRemove(t *testing.T) {
	doc := NewDocument()
	root := doc.NewElement("ul")
	a, b, c := doc.NewElement("li"), doc.NewElement("li"), doc.NewElement("li")
	a.AppendChild(doc.NewText("a"))
	b.AppendChild(doc.NewText("b"))
	c.AppendChild(doc.NewText("c"))

	root.AppendChild(a)
	root.AppendChild(c)
	root.InsertBefore(b, c)
	if got, want := root.InnerHTML(), "<li>a</li><li>b</li><li>c</li>"; got != want {
		t.Fatalf("InnerHTML = %q, want %q", got, want)
	}

	// Inserting an attached node moves it.
	root.InsertBefore(c, a)
	if got, want := root.InnerHTML(), "<li>c</li><li>a</li><li>b</li>"; got != want {
		t.Fatalf("after move InnerHTML = %q, want %q", got, want)
	}
	if c.ParentNode() != host.Element(root) {
		t.Error("moved node should keep its parent")
	}

	root.RemoveChild(a)
	if a.ParentNode() != nil {
		t.Error("removed node should have no parent")
	}
	if got := len(root.ChildNodes()); got != 2 {
		t.Errorf("len(ChildNodes) = %d, want 2", got)
	}
}

func TestInsertBeforeForeignRefPanics(t *testing.T) {
	doc := NewDocument()
	root := doc.NewElement("div")
	defer func() {
		if recover() == nil {
			t.Error("expected panic for a reference node outside the parent")
		}
	}()
	root.InsertBefore(doc.NewElement("p"), doc.NewElement("span"))
}

func TestAttributesKeepOrder(t *testing.T) {
	el := NewContainer("input")
	el.SetAttribute("data-testid", "input")
	el.SetAttribute("value", "a")
	el.SetAttribute("data-testid", "name")

	if diff := cmp.Diff([]string{"data-testid", "value"}, el.AttributeNames()); diff != "" {
		t.Errorf("attribute order mismatch (-want +got):\n%s", diff)
	}
	el.RemoveAttribute("data-testid")
	if _, ok := el.Attribute("data-testid"); ok {
		t.Error("attribute should be removed")
	}
	if got, want := el.OuterHTML(), `<input value="a"/>`; got != want {
		t.Errorf("OuterHTML = %q, want %q", got, want)
	}
}

func TestPropertiesAreSeparateFromAttributes(t *testing.T) {
	el := NewContainer("input")
	el.SetAttribute("value", "initial")
	el.SetProperty("value", "typed")

	if v, _ := el.Attribute("value"); v != "initial" {
		t.Errorf("attribute = %q, want %q", v, "initial")
	}
	if got := el.Property("value"); got != "typed" {
		t.Errorf("property = %v, want %q", got, "typed")
	}
	ev := host.NewEvent("input", el)
	if ev.Value() != "typed" {
		t.Errorf("Event.Value() = %q, want %q", ev.Value(), "typed")
	}
}

func TestListenersBubbleAndDeduplicate(t *testing.T) {
	doc := NewDocument()
	outer := doc.NewElement("div")
	inner := doc.NewElement("button")
	outer.AppendChild(inner)

	var calls []string
	onInner := func(ev *host.Event) { calls = append(calls, "inner") }
	onOuter := func(ev *host.Event) {
		calls = append(calls, "outer")
		if ev.CurrentTarget != host.Element(outer) {
			t.Error("CurrentTarget should be the listening element")
		}
	}
	inner.AddEventListener("click", onInner)
	inner.AddEventListener("click", onInner)
	outer.AddEventListener("click", onOuter)

	inner.Dispatch(host.NewEvent("click", nil))
	if diff := cmp.Diff([]string{"inner", "outer"}, calls); diff != "" {
		t.Errorf("dispatch order mismatch (-want +got):\n%s", diff)
	}

	inner.RemoveEventListener("click", onInner)
	if n := inner.ListenerCount("click"); n != 0 {
		t.Errorf("ListenerCount = %d, want 0", n)
	}
}

func TestStopPropagation(t *testing.T) {
	doc := NewDocument()
	outer := doc.NewElement("div")
	inner := doc.NewElement("button")
	outer.AppendChild(inner)

	reached := false
	inner.AddEventListener("click", func(ev *host.Event) { ev.StopPropagation() })
	outer.AddEventListener("click", func(*host.Event) { reached = true })
	inner.Dispatch(host.NewEvent("click", nil))
	if reached {
		t.Error("event should not bubble past StopPropagation")
	}
}

func TestQueries(t *testing.T) {
	doc := NewDocument()
	nodes, err := doc.Parse(`<ul><li class="done item" data-testid="a">one</li><li class="item">two</li></ul>`)
	if err != nil {
		t.Fatal(err)
	}
	root := doc.NewElement("div")
	for _, n := range nodes {
		root.AppendChild(n)
	}

	if el := root.Find(ByTestID("a")); el == nil || el.TextContent() != "one" {
		t.Fatalf("Find(ByTestID) = %v", el)
	}
	if got := len(root.FindAll(ByClass("item"))); got != 2 {
		t.Errorf("FindAll(ByClass) = %d, want 2", got)
	}
	if el := root.Find(ByText("two")); el == nil || el.TagName() != "li" {
		t.Errorf("Find(ByText) = %v", el)
	}
	if root.Find(ByTag("table")) != nil {
		t.Error("Find should return nil without a match")
	}
	if got, want := root.TextContent(), "onetwo"; got != want {
		t.Errorf("TextContent = %q, want %q", got, want)
	}
}

func TestInnerHTMLEscapes(t *testing.T) {
	doc := NewDocument()
	p := doc.NewElement("p")
	p.SetAttribute("title", `a "b"`)
	p.AppendChild(doc.NewText("1 < 2 & 3"))
	root := doc.NewElement("div")
	root.AppendChild(p)

	want := `<p title="a &#34;b&#34;">1 &lt; 2 &amp; 3</p>`
	if got := root.InnerHTML(); got != want {
		t.Errorf("InnerHTML = %q, want %q", got, want)
	}
}
