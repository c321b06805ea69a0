package service

import (
	"context"
	"errors"
	"time"

	"github.com/haitiwallet/console/services/console/internal/backend"
)

type FailurePolicy int

const (
	// Abort stops the cascade and logs the operator out.
	Abort FailurePolicy = iota
	// Continue records the failure inline and moves on.
	Continue
)

const (
	StepOK      = "ok"
	StepFailed  = "failed"
	StepSkipped = "skipped"
)

// Step is one named loader in the refresh cascade. Gate, when set, is checked
// against the role cached by the steps before it.
type Step struct {
	Name   string
	Policy FailurePolicy
	Gate   func(backend.Role) bool
	Run    func(ctx context.Context) error
	// Skip clears the step's cache when the gate denies it.
	Skip func()
}

type StepResult struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

type Report struct {
	Steps     []StepResult  `json:"steps"`
	Aborted   bool          `json:"aborted"`
	LoggedOut bool          `json:"logged_out"`
	Duration  time.Duration `json:"duration"`
}

// Failed lists the names of steps that did not succeed.
func (r *Report) Failed() []string {
	var out []string
	for _, s := range r.Steps {
		if s.Status == StepFailed {
			out = append(out, s.Name)
		}
	}
	return out
}

func (c *Console) steps() []Step {
	admin := backend.Role.IsAdmin
	super := backend.Role.IsSuperadmin
	return []Step{
		{Name: "profile", Policy: Abort, Run: c.loadProfile},
		{Name: "fx", Policy: Continue, Run: c.loadFX},
		{Name: "history", Policy: Continue, Run: c.loadHistory},
		{Name: "my_topups", Policy: Continue, Run: c.loadMyTopups},
		{Name: "partners", Policy: Continue, Run: c.loadPartners},
		{Name: "admin_pending", Policy: Continue, Gate: admin, Run: c.loadAdminPending, Skip: c.store.AdminPending.Reset},
		{Name: "partners_admin", Policy: Continue, Gate: admin, Run: c.loadPartnersAdmin, Skip: c.store.PartnersAdmin.Reset},
		{Name: "superadmin_users", Policy: Continue, Gate: super, Run: c.loadUsers, Skip: c.store.Users.Reset},
	}
}

// Refresh runs the cascade. Concurrent callers queue behind the running one.
// Without a token the state is reset to the logged-out view.
func (c *Console) Refresh(ctx context.Context) (*Report, error) {
	c.cascadeMu.Lock()
	defer c.cascadeMu.Unlock()
	return c.runCascade(ctx, c.steps())
}

func (c *Console) runCascade(ctx context.Context, steps []Step) (*Report, error) {
	start := c.now()
	report := &Report{Steps: make([]StepResult, 0, len(steps))}

	if !c.session.LoggedIn() {
		c.store.Reset()
		report.LoggedOut = true
		c.recordCascade("logged_out")
		return report, nil
	}

	for _, step := range steps {
		if step.Gate != nil && !step.Gate(c.store.Role()) {
			if step.Skip != nil {
				step.Skip()
			}
			report.Steps = append(report.Steps, StepResult{Name: step.Name, Status: StepSkipped})
			continue
		}

		stepStart := c.now()
		err := step.Run(ctx)
		res := StepResult{Name: step.Name, Status: StepOK, Duration: c.now().Sub(stepStart)}
		if err != nil {
			res.Status = StepFailed
			res.Error = err.Error()
		}
		if c.metrics != nil {
			c.metrics.CascadeStep.WithLabelValues(step.Name, res.Status).Observe(res.Duration.Seconds())
		}
		report.Steps = append(report.Steps, res)

		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			report.Aborted = true
			report.Duration = c.now().Sub(start)
			c.recordCascade("cancelled")
			return report, ctxErr
		}
		if step.Policy == Abort || backend.IsUnauthorized(err) {
			c.logger.Warn("cascade aborted, logging out", "step", step.Name, "error", err)
			c.expire(ctx)
			report.Aborted = true
			report.LoggedOut = true
			break
		}
		c.logger.Warn("cascade step failed", "step", step.Name, "error", err)
	}

	report.Duration = c.now().Sub(start)
	switch {
	case report.LoggedOut:
		c.recordCascade("logged_out")
	case len(report.Failed()) > 0:
		c.recordCascade("partial")
	default:
		c.recordCascade("ok")
	}
	return report, nil
}

func (c *Console) recordCascade(outcome string) {
	if c.metrics != nil {
		c.metrics.CascadeRuns.WithLabelValues(outcome).Inc()
	}
}

// refreshAfter runs the cascade following a successful mutation. Its failures are
// already reflected inline, so only cancellation is reported.
func (c *Console) refreshAfter(ctx context.Context) {
	if _, err := c.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("refresh after action failed", "error", err)
	}
}
