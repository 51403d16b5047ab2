package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/castlemilk/pfinance/insights/internal/config"
	"github.com/castlemilk/pfinance/insights/internal/domain"
	"github.com/castlemilk/pfinance/insights/internal/store"
)

type sentPush struct {
	token, title, body, link string
}

type fakePush struct {
	enabled bool
	err     error

	mu   sync.Mutex
	sent []sentPush
}

func (f *fakePush) Enabled() bool { return f.enabled }

func (f *fakePush) SendToToken(ctx context.Context, token, title, body, link string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentPush{token, title, body, link})
	return "projects/test/messages/1", nil
}

var testMaintenance = config.MaintenanceConfig{Retention: 90 * 24 * time.Hour, UpcomingWindow: time.Hour}

func TestMaintenanceService_CleanupSchedules(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := store.NewMockStore(ctrl)

	stale := testNow.Add(-91 * 24 * time.Hour)
	fresh := testNow.Add(-24 * time.Hour)
	mockStore.EXPECT().ListSchedules(gomock.Any()).Return([]*domain.Schedule{
		{UserID: 1, Kind: domain.KindCategory, LastGeneratedAt: &stale},
		{UserID: 1, Kind: domain.KindOffers, LastGeneratedAt: &fresh},
		{UserID: 2, Kind: domain.KindQuickInsights},
		{UserID: 3, Kind: domain.KindOffers, LastGeneratedAt: &stale},
	}, nil)
	mockStore.EXPECT().DeleteSchedule(gomock.Any(), int64(1), domain.KindCategory).Return(nil)
	mockStore.EXPECT().DeleteSchedule(gomock.Any(), int64(3), domain.KindOffers).Return(domain.Persistence("delete schedule", errors.New("timeout")))

	m := NewMaintenanceService(testLog, mockStore, nil, nil, testMaintenance, fixedClock(testNow))
	deleted, err := m.CleanupSchedules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)
}

func TestMaintenanceService_CleanupListError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := store.NewMockStore(ctrl)
	mockStore.EXPECT().ListSchedules(gomock.Any()).Return(nil, domain.Persistence("list schedules", errors.New("down")))

	m := NewMaintenanceService(testLog, mockStore, nil, nil, testMaintenance, fixedClock(testNow))
	_, err := m.CleanupSchedules(context.Background())
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestMaintenanceService_UpcomingSchedules(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	for _, sched := range []*domain.Schedule{
		{UserID: 1, Kind: domain.KindCategory, NextScheduledAt: testNow.Add(30 * time.Minute)},
		{UserID: 1, Kind: domain.KindOffers, NextScheduledAt: testNow.Add(2 * time.Hour)},
		{UserID: 2, Kind: domain.KindQuickInsights, NextScheduledAt: testNow.Add(-time.Minute)},
		{UserID: 2, Kind: domain.KindOffers, NextScheduledAt: testNow},
	} {
		require.NoError(t, s.SaveSchedule(ctx, sched))
	}

	m := NewMaintenanceService(testLog, s, nil, nil, testMaintenance, fixedClock(testNow))
	due, err := m.UpcomingSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, domain.KindCategory, due[0].Kind)
}

func TestMaintenanceService_SendBudgetAlerts(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	addLimit(t, s, 10, "DINING", "100", date(2026, 4, 1))
	addLimit(t, s, 11, "SHOPPING", "100", date(2026, 4, 1))
	addTx(t, s, debit(10, 100, "130", date(2026, 4, 2)))
	addTx(t, s, debit(11, 102, "95", date(2026, 4, 3)))

	push := &fakePush{enabled: true}
	m := NewMaintenanceService(testLog, s, NewAdherenceService(testLog, s, fixedClock(testNow)), push, testMaintenance, fixedClock(testNow))

	sent, failed, err := m.SendBudgetAlerts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 0, failed)

	require.Len(t, push.sent, 1)
	assert.Equal(t, sentPush{
		token: "tok-1",
		title: "Budget Exceeded",
		body:  "You're over budget: DINING; close to the limit: SHOPPING.",
		link:  "/budgets",
	}, push.sent[0])
}

func TestMaintenanceService_SendBudgetAlertsFailures(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	addLimit(t, s, 10, "DINING", "100", date(2026, 4, 1))
	addTx(t, s, debit(10, 100, "130", date(2026, 4, 2)))
	adherence := NewAdherenceService(testLog, s, fixedClock(testNow))

	t.Run("delivery errors are counted", func(t *testing.T) {
		m := NewMaintenanceService(testLog, s, adherence, &fakePush{enabled: true, err: errors.New("unregistered")}, testMaintenance, fixedClock(testNow))
		sent, failed, err := m.SendBudgetAlerts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
		assert.Equal(t, 1, failed)
	})

	t.Run("disabled push sends nothing", func(t *testing.T) {
		push := &fakePush{enabled: false}
		m := NewMaintenanceService(testLog, s, adherence, push, testMaintenance, fixedClock(testNow))
		sent, failed, err := m.SendBudgetAlerts(ctx)
		require.NoError(t, err)
		assert.Zero(t, sent+failed)
		assert.Empty(t, push.sent)
	})
}

func TestMaintenanceService_Run(t *testing.T) {
	ctx := context.Background()
	s := seedStore(t)
	stale := testNow.Add(-100 * 24 * time.Hour)
	require.NoError(t, s.SaveSchedule(ctx, &domain.Schedule{UserID: 1, Kind: domain.KindOffers, LastGeneratedAt: &stale, NextScheduledAt: stale}))
	require.NoError(t, s.SaveSchedule(ctx, &domain.Schedule{UserID: 2, Kind: domain.KindOffers, NextScheduledAt: testNow.Add(10 * time.Minute)}))

	m := NewMaintenanceService(testLog, s, NewAdherenceService(testLog, s, fixedClock(testNow)), nil, testMaintenance, fixedClock(testNow))
	report, err := m.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, &MaintenanceReport{SchedulesDeleted: 1, SchedulesDueSoon: 1}, report)

	remaining, err := s.ListSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, int64(2), remaining[0].UserID)
}

func TestBudgetAlert(t *testing.T) {
	_, _, ok := BudgetAlert(&domain.BudgetAdherence{CategoryAdherences: []domain.CategoryAdherence{
		{Category: "DINING", AdherenceLevel: domain.AdherenceWarning},
	}})
	assert.False(t, ok)

	title, body, ok := BudgetAlert(&domain.BudgetAdherence{CategoryAdherences: []domain.CategoryAdherence{
		{Category: "DINING", AdherenceLevel: domain.AdherenceCritical},
		{Category: "TRANSPORT", AdherenceLevel: domain.AdherenceCritical},
	}})
	require.True(t, ok)
	assert.Equal(t, "Budget Alert", title)
	assert.Equal(t, "You're close to the limit: DINING, TRANSPORT.", body)
}
