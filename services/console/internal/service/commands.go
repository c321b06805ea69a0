package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/session"
)

// Command is a superadmin action on one user row.
type Command string

const (
	CmdToggleAdmin   Command = "toggle_admin"
	CmdToggleSuspend Command = "toggle_suspend"
	CmdBan           Command = "ban"
	CmdDelete        Command = "delete"
	CmdImpersonate   Command = "impersonate"
)

var Commands = []Command{CmdToggleAdmin, CmdToggleSuspend, CmdBan, CmdDelete, CmdImpersonate}

func ParseCommand(raw string) (Command, bool) {
	cmd := Command(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Commands {
		if cmd == known {
			return cmd, true
		}
	}
	return "", false
}

// NeedsConfirmation reports whether the command is destructive.
func (cmd Command) NeedsConfirmation() bool {
	return cmd == CmdBan || cmd == CmdDelete
}

type DispatchResult struct {
	Command    Command `json:"command"`
	Target     int64   `json:"target"`
	HandoffURL string  `json:"handoff_url,omitempty"`
}

// Dispatch runs cmd against the cached user targetID, then reloads the user list only.
// Destructive commands are refused without confirmed and nothing is sent.
func (c *Console) Dispatch(ctx context.Context, cmd Command, targetID int64, confirmed bool) (*DispatchResult, error) {
	if err := c.requireRole(backend.Role.IsSuperadmin); err != nil {
		return nil, err
	}
	if _, ok := ParseCommand(string(cmd)); !ok {
		return nil, ErrUnknownCommand
	}
	if cmd.NeedsConfirmation() && !confirmed {
		return nil, ErrConfirmationRequired
	}
	user, ok := c.findUser(targetID)
	if !ok {
		return nil, ErrUnknownUser
	}
	if user.Role.IsSuperadmin() {
		return nil, ErrProtectedUser
	}

	res := &DispatchResult{Command: cmd, Target: targetID}
	action := "user_" + string(cmd)
	err := c.submit(ctx, action, strconv.FormatInt(targetID, 10), func(ctx context.Context) error {
		if err := c.execute(ctx, cmd, user, res); err != nil {
			return c.fail(ctx, action, err, msgGenericActionFailed)
		}
		c.reloadUsers(ctx)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Console) execute(ctx context.Context, cmd Command, user backend.User, res *DispatchResult) error {
	switch cmd {
	case CmdToggleAdmin:
		role := backend.RoleAdmin
		if user.Role == backend.RoleAdmin {
			role = backend.RoleUser
		}
		return c.api.SetUserRole(ctx, user.ID, role)
	case CmdToggleSuspend:
		status := backend.UserSuspended
		if user.Status == backend.UserSuspended {
			status = backend.UserActive
		}
		return c.api.SetUserStatus(ctx, user.ID, status)
	case CmdBan:
		return c.api.SetUserStatus(ctx, user.ID, backend.UserBanned)
	case CmdDelete:
		return c.api.DeleteUser(ctx, user.ID)
	case CmdImpersonate:
		out, err := c.api.Impersonate(ctx, user.ID)
		if err != nil {
			return err
		}
		res.HandoffURL = session.HandoffURL(c.opts.PublicURL, out.AccessToken)
		return nil
	default:
		return ErrUnknownCommand
	}
}

// reloadUsers refreshes only the user list, serialized with the cascade.
func (c *Console) reloadUsers(ctx context.Context) {
	c.cascadeMu.Lock()
	defer c.cascadeMu.Unlock()
	if err := c.loadUsers(ctx); err != nil {
		c.logger.Warn("user list reload failed", "error", err)
	}
}

func (c *Console) findUser(id int64) (backend.User, bool) {
	for _, u := range c.store.Users.Snapshot() {
		if u.ID == id {
			return u, true
		}
	}
	return backend.User{}, false
}
