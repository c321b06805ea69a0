package views

import (
	"strings"

	"github.com/haitiwallet/console/services/console/internal/backend"
)

const DefaultPageSize = 5

type UserRow struct {
	Index     int      `json:"index"`
	ID        int64    `json:"id"`
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	Status    string   `json:"status"`
	Protected bool     `json:"protected"`
	Actions   []Action `json:"actions"`
}

type UsersView struct {
	Rows    []UserRow `json:"rows"`
	Query   string    `json:"query"`
	Matched int       `json:"matched"`
	Visible int       `json:"visible"`
	HasMore bool      `json:"has_more"`
	Error   string    `json:"error,omitempty"`
}

// UserActions lists the per-row commands. Superadmin rows get none.
func UserActions(u backend.User) []Action {
	if u.Role.IsSuperadmin() {
		return []Action{}
	}
	roleLabel := "Admin"
	if u.Role == backend.RoleAdmin {
		roleLabel = "Retirer admin"
	}
	pauseLabel := "Pause"
	if u.Status == backend.UserSuspended {
		pauseLabel = "Ouvrir"
	}
	return []Action{
		{Command: "toggle_admin", Label: roleLabel, Target: u.ID},
		{Command: "toggle_suspend", Label: pauseLabel, Target: u.ID},
		{Command: "ban", Label: "Ban", Target: u.ID, Confirm: true},
		{Command: "delete", Label: "Supprimer", Target: u.ID, Confirm: true},
		{Command: "impersonate", Label: "Login", Target: u.ID},
	}
}

// RenderUsers filters by email substring and shows the first visible rows.
func RenderUsers(users []backend.User, loadErr, query string, visible, pageSize int) UsersView {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if visible <= 0 {
		visible = pageSize
	}
	query = strings.TrimSpace(query)
	v := UsersView{Rows: []UserRow{}, Query: query, Visible: visible}
	if loadErr != "" {
		v.Error = loadErr
		return v
	}

	needle := strings.ToLower(query)
	matched := make([]backend.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Email), needle) {
			matched = append(matched, u)
		}
	}
	v.Matched = len(matched)
	v.HasMore = visible < len(matched)

	for i, u := range matched[:min(len(matched), visible)] {
		v.Rows = append(v.Rows, UserRow{
			Index:     i + 1,
			ID:        u.ID,
			Email:     u.Email,
			Role:      string(u.Role),
			Status:    u.Status,
			Protected: u.Role.IsSuperadmin(),
			Actions:   UserActions(u),
		})
	}
	return v
}
