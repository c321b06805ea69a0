package views

import (
	"sort"

	"github.com/haitiwallet/console/services/console/internal/backend"
)

type Capability string

const (
	FeesExplainer   Capability = "fees_explainer"
	SpendBox        Capability = "spend_box"
	AdminTab        Capability = "admin_tab"
	AdminStats      Capability = "admin_stats"
	AdminAdjust     Capability = "admin_adjust"
	AdminPending    Capability = "admin_pending"
	PartnersAdmin   Capability = "partners_admin"
	SuperadminUsers Capability = "superadmin_users"
)

type Capabilities map[Capability]bool

func (c Capabilities) Has(cap Capability) bool {
	return c[cap]
}

// List is sorted for stable output.
func (c Capabilities) List() []Capability {
	out := make([]Capability, 0, len(c))
	for cap, on := range c {
		if on {
			out = append(out, cap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Registry maps a role to the optional sections it may see.
type Registry struct {
	byRole map[backend.Role][]Capability
}

func NewRegistry(byRole map[backend.Role][]Capability) *Registry {
	return &Registry{byRole: byRole}
}

func DefaultRegistry() *Registry {
	base := []Capability{FeesExplainer, SpendBox}
	admin := append(append([]Capability{}, base...), AdminTab, AdminStats, AdminAdjust, AdminPending, PartnersAdmin)
	super := append(append([]Capability{}, admin...), SuperadminUsers)
	return NewRegistry(map[backend.Role][]Capability{
		backend.RoleUser:       base,
		backend.RoleAdmin:      admin,
		backend.RoleSuperadmin: super,
	})
}

// For returns the capabilities of role. Unknown or empty roles get none.
func (r *Registry) For(role backend.Role) Capabilities {
	out := Capabilities{}
	for _, cap := range r.byRole[role] {
		out[cap] = true
	}
	return out
}
