package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temporaldebt/core/internal/core/event"
	"github.com/temporaldebt/core/internal/geom"
)

func newCollector(t *testing.T) (*Collector, *event.Bus) {
	t.Helper()
	c, err := NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)
	bus := event.NewBus()
	c.Subscribe(bus)
	return c, bus
}

func TestEventsDriveMetrics(t *testing.T) {
	c, bus := newCollector(t)

	event.Emit(bus, event.TimeScaleChanged{Scale: 0})
	event.Emit(bus, event.TimeUnfrozen{Duration: 4, Scale: 2})
	event.Emit(bus, event.DebtChanged{Value: 6, Delta: 6})
	event.Emit(bus, event.TierChanged{Old: 0, New: 2})
	event.Emit(bus, event.AnchorPlaced{Position: geom.V(1, 1)})
	event.Emit(bus, event.AnchorPlaced{Position: geom.V(2, 2)})
	event.Emit(bus, event.AnchorRecalled{Cost: 1})
	event.Emit(bus, event.RecallDeclined{Index: 5})
	event.Emit(bus, event.BankruptcyStarted{Debt: 21, Times: 1})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.TimeScale), "nothing applies before dispatch")
	bus.Dispatch(bus.Drain())

	assert.Equal(t, 0.0, testutil.ToFloat64(c.TimeScale))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.FreezeSeconds))
	assert.Equal(t, 6.0, testutil.ToFloat64(c.Debt))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Tier))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AnchorsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Recalls))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.RecallsDenied))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Bankruptcies))

	event.Emit(bus, event.AnchorsCleared{Count: 1})
	bus.Dispatch(bus.Drain())
	assert.Equal(t, 0.0, testutil.ToFloat64(c.AnchorsActive))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)
	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestHandlerServesMetrics(t *testing.T) {
	c, _ := newCollector(t)
	c.Debt.Set(3.5)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "temporal_debt_seconds 3.5"))
}
