package tabs

import "testing"

func TestParseCoercesUnknown(t *testing.T) {
	cases := map[string]Tab{
		"#history":   History,
		"history":    History,
		" #admin ":   Admin,
		"#HISTORY":   Dashboard,
		"Admin":      Dashboard,
		"":           Dashboard,
		"#":          Dashboard,
		"#settings":  Dashboard,
		"dashboard2": Dashboard,
		"partners":   Partners,
	}
	for raw, want := range cases {
		if got := Parse(raw); got != want {
			t.Fatalf("Parse(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNavigateRecordsFragment(t *testing.T) {
	m := NewMachine("")
	if m.Active() != Dashboard {
		t.Fatalf("expected dashboard start, got %s", m.Active())
	}

	tr := m.Navigate("#transfer")
	if tr.From != Dashboard || tr.Active != Transfer || tr.Fragment != "#transfer" {
		t.Fatalf("unexpected transition %+v", tr)
	}

	tr = m.Navigate("bogus")
	if tr.Active != Dashboard || m.Active() != Dashboard {
		t.Fatalf("unknown fragment should coerce to dashboard, got %+v", tr)
	}
}

func TestLayoutExactlyOneVisible(t *testing.T) {
	for _, active := range append(All, Tab("nope")) {
		layout := LayoutFor(active, true)
		visible := 0
		for _, p := range layout.Panels {
			if p.Visible {
				visible++
			}
		}
		if visible != 1 {
			t.Fatalf("active %q: expected 1 visible panel, got %d", active, visible)
		}
		activeButtons := 0
		for _, b := range layout.Buttons {
			if b.Active {
				activeButtons++
			}
		}
		if activeButtons != 1 {
			t.Fatalf("active %q: expected 1 active button, got %d", active, activeButtons)
		}
	}
}

func TestLayoutHidesAdminButton(t *testing.T) {
	hidden := func(l Layout) bool {
		for _, b := range l.Buttons {
			if b.Tab == Admin {
				return b.Hidden
			}
		}
		t.Fatalf("admin button missing")
		return false
	}

	if !hidden(LayoutFor(Dashboard, false)) {
		t.Fatalf("admin button should be hidden for plain users")
	}
	if hidden(LayoutFor(Dashboard, true)) {
		t.Fatalf("admin button should be shown for admins")
	}
}
