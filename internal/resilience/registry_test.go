package resilience

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_GetIsLazyAndStable(t *testing.T) {
	r := NewRegistry(DefaultSettings(), nil, nil)
	assert.Empty(t, r.Names())

	a := r.Get(OpenAIService)
	b := r.Get(OpenAIService)
	assert.Same(t, a, b)
	assert.Equal(t, []string{OpenAIService}, r.Names())
}

func TestRegistry_ConcurrentGet(t *testing.T) {
	r := NewRegistry(DefaultSettings(), nil, nil)

	var wg sync.WaitGroup
	got := make([]*CircuitBreaker, 32)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got[i] = r.Get("fcm")
		}(i)
	}
	wg.Wait()

	for _, b := range got {
		assert.Same(t, got[0], b)
	}
}

func TestRegistry_Health(t *testing.T) {
	clock := newFakeClock()
	r := NewRegistry(DefaultSettings(), clock.Now, nil)

	r.Get("fcm")
	ai := r.Get(OpenAIService)

	report := r.Health()
	assert.Equal(t, HealthHealthy, report.Status)
	assert.Len(t, report.Services, 2)
	assert.Equal(t, clock.Now().UnixMilli(), report.Timestamp)

	for i := 0; i < 3; i++ {
		ai.RecordFailure(errUpstream)
	}
	report = r.Health()
	assert.Equal(t, HealthDegraded, report.Status)
	assert.Equal(t, StateOpen, report.Services[OpenAIService].State)
	assert.False(t, report.Services[OpenAIService].IsAvailable)
	assert.True(t, report.Services["fcm"].IsAvailable)

	clock.Advance(5 * time.Minute)
	report = r.Health()
	assert.Equal(t, HealthHealthy, report.Status)
	assert.Equal(t, StateHalfOpen, report.Services[OpenAIService].State)
}
