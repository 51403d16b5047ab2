package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/castlemilk/pfinance/insights/internal/config"
	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

// PushSender delivers a push notification to one device token.
// *notify.Notifier implements it.
type PushSender interface {
	Enabled() bool
	SendToToken(ctx context.Context, token, title, body, link string) (string, error)
}

// MaintenanceReport summarises one maintenance run.
type MaintenanceReport struct {
	SchedulesDeleted int `json:"schedulesDeleted"`
	SchedulesDueSoon int `json:"schedulesDueSoon"`
	AlertsSent       int `json:"alertsSent"`
	AlertsFailed     int `json:"alertsFailed"`
}

// MaintenanceService prunes recommendation schedules and sends budget alerts.
type MaintenanceService struct {
	store     store.Store
	adherence *AdherenceService
	push      PushSender
	cfg       config.MaintenanceConfig
	now       func() time.Time
	log       *slog.Logger
}

// NewMaintenanceService creates a MaintenanceService. push and now may be nil.
func NewMaintenanceService(log *slog.Logger, s store.Store, adherence *AdherenceService, push PushSender, cfg config.MaintenanceConfig, now func() time.Time) *MaintenanceService {
	if now == nil {
		now = time.Now
	}
	return &MaintenanceService{
		store:     s,
		adherence: adherence,
		push:      push,
		cfg:       cfg,
		now:       now,
		log:       log.With("service", "maintenance"),
	}
}

// Run performs cleanup, the upcoming check and budget alerts once.
func (m *MaintenanceService) Run(ctx context.Context) (*MaintenanceReport, error) {
	report := &MaintenanceReport{}

	deleted, err := m.CleanupSchedules(ctx)
	if err != nil {
		return nil, err
	}
	report.SchedulesDeleted = deleted

	upcoming, err := m.UpcomingSchedules(ctx)
	if err != nil {
		return nil, err
	}
	report.SchedulesDueSoon = len(upcoming)

	report.AlertsSent, report.AlertsFailed, err = m.SendBudgetAlerts(ctx)
	if err != nil {
		return nil, err
	}
	return report, nil
}

// CleanupSchedules deletes schedules last generated before the retention
// window. Schedules that never generated are kept.
func (m *MaintenanceService) CleanupSchedules(ctx context.Context) (int, error) {
	schedules, err := m.store.ListSchedules(ctx)
	if err != nil {
		return 0, fmt.Errorf("list schedules: %w", err)
	}

	cutoff := m.now().Add(-m.cfg.Retention)
	deleted := 0
	for _, sched := range schedules {
		if sched.LastGeneratedAt == nil || !sched.LastGeneratedAt.Before(cutoff) {
			continue
		}
		if err := m.store.DeleteSchedule(ctx, sched.UserID, sched.Kind); err != nil {
			m.log.WarnContext(ctx, "schedule delete failed",
				slog.Int64("user_id", sched.UserID),
				slog.String("kind", string(sched.Kind)),
				slog.Any("error", err))
			continue
		}
		deleted++
	}

	if deleted > 0 {
		m.log.InfoContext(ctx, "cleaned up inactive recommendation schedules", slog.Int("deleted", deleted))
	}
	return deleted, nil
}

// UpcomingSchedules returns schedules falling due within the upcoming window.
func (m *MaintenanceService) UpcomingSchedules(ctx context.Context) ([]*domain.Schedule, error) {
	schedules, err := m.store.ListSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}

	now := m.now()
	horizon := now.Add(m.cfg.UpcomingWindow)
	var due []*domain.Schedule
	for _, sched := range schedules {
		if sched.NextScheduledAt.After(now) && sched.NextScheduledAt.Before(horizon) {
			due = append(due, sched)
		}
	}

	if len(due) > 0 {
		m.log.InfoContext(ctx, "recommendations due soon",
			slog.Int("count", len(due)),
			slog.Duration("window", m.cfg.UpcomingWindow))
	}
	return due, nil
}

// SendBudgetAlerts pushes one notification to every user with a device
// token whose categories are at the critical or exceeded level. Delivery
// failures are logged and counted, never returned.
func (m *MaintenanceService) SendBudgetAlerts(ctx context.Context) (sent, failed int, err error) {
	if m.push == nil || !m.push.Enabled() {
		m.log.DebugContext(ctx, "push disabled, skipping budget alerts")
		return 0, 0, nil
	}

	users, err := m.store.ListUsersWithPushTokens(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list push users: %w", err)
	}

	for _, user := range users {
		adherence, err := m.adherence.CheckBudgetAdherence(ctx, user.ID)
		if err != nil {
			m.log.WarnContext(ctx, "adherence check for alert failed",
				slog.Int64("user_id", user.ID), slog.Any("error", err))
			failed++
			continue
		}

		title, body, ok := BudgetAlert(adherence)
		if !ok {
			continue
		}
		if _, err := m.push.SendToToken(ctx, user.PushToken, title, body, "/budgets"); err != nil {
			m.log.WarnContext(ctx, "budget alert push failed",
				slog.Int64("user_id", user.ID), slog.Any("error", err))
			failed++
			continue
		}
		sent++
	}

	m.log.InfoContext(ctx, "budget alerts processed",
		slog.Int("users", len(users)),
		slog.Int("sent", sent),
		slog.Int("failed", failed))
	return sent, failed, nil
}

// BudgetAlert words the alert for categories at CRITICAL or EXCEEDED.
// ok is false when no category needs attention.
func BudgetAlert(adherence *domain.BudgetAdherence) (title, body string, ok bool) {
	var over, near []string
	for _, c := range adherence.CategoryAdherences {
		switch c.AdherenceLevel {
		case domain.AdherenceExceeded:
			over = append(over, c.Category)
		case domain.AdherenceCritical:
			near = append(near, c.Category)
		}
	}
	if len(over) == 0 && len(near) == 0 {
		return "", "", false
	}

	var parts []string
	if len(over) > 0 {
		parts = append(parts, "over budget: "+strings.Join(over, ", "))
	}
	if len(near) > 0 {
		parts = append(parts, "close to the limit: "+strings.Join(near, ", "))
	}
	title = "Budget Alert"
	if len(over) > 0 {
		title = "Budget Exceeded"
	}
	return title, "You're " + strings.Join(parts, "; ") + ".", true
}
