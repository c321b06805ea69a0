package tabs

import (
	"strings"
	"sync"
)

type Tab string

const (
	Dashboard Tab = "dashboard"
	Topup     Tab = "topup"
	Transfer  Tab = "transfer"
	History   Tab = "history"
	Partners  Tab = "partners"
	Info      Tab = "info"
	Admin     Tab = "admin"
)

// All is the navigation order.
var All = []Tab{Dashboard, Topup, Transfer, History, Partners, Info, Admin}

func (t Tab) Valid() bool {
	for _, known := range All {
		if t == known {
			return true
		}
	}
	return false
}

func (t Tab) Fragment() string {
	return "#" + string(t)
}

// Parse reads a tab name or fragment. Names match exactly; anything unknown is the dashboard.
func Parse(raw string) Tab {
	name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "#"))
	tab := Tab(name)
	if !tab.Valid() {
		return Dashboard
	}
	return tab
}

type Transition struct {
	From     Tab    `json:"from"`
	Active   Tab    `json:"active"`
	Fragment string `json:"fragment"`
}

type Machine struct {
	mu     sync.RWMutex
	active Tab
}

func NewMachine(initial string) *Machine {
	return &Machine{active: Parse(initial)}
}

func (m *Machine) Active() Tab {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

func (m *Machine) Navigate(raw string) Transition {
	next := Parse(raw)

	m.mu.Lock()
	defer m.mu.Unlock()
	tr := Transition{From: m.active, Active: next, Fragment: next.Fragment()}
	m.active = next
	return tr
}

type Panel struct {
	Tab     Tab  `json:"tab"`
	Visible bool `json:"visible"`
}

type Button struct {
	Tab    Tab  `json:"tab"`
	Active bool `json:"active"`
	Hidden bool `json:"hidden"`
}

type Layout struct {
	Active   Tab      `json:"active"`
	Fragment string   `json:"fragment"`
	Panels   []Panel  `json:"panels"`
	Buttons  []Button `json:"buttons"`
}

// LayoutFor marks exactly one panel visible. The admin button is hidden unless
// canAdmin; visibility of the panel itself follows navigation only.
func LayoutFor(active Tab, canAdmin bool) Layout {
	if !active.Valid() {
		active = Dashboard
	}
	out := Layout{
		Active:   active,
		Fragment: active.Fragment(),
		Panels:   make([]Panel, 0, len(All)),
		Buttons:  make([]Button, 0, len(All)),
	}
	for _, tab := range All {
		out.Panels = append(out.Panels, Panel{Tab: tab, Visible: tab == active})
		out.Buttons = append(out.Buttons, Button{
			Tab:    tab,
			Active: tab == active,
			Hidden: tab == Admin && !canAdmin,
		})
	}
	return out
}
