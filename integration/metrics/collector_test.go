package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/chatrelay/core/chat"
	"github.com/dmitrymomot/chatrelay/integration/metrics"
)

type staticStats chat.Stats

func (s staticStats) Stats() chat.Stats { return chat.Stats(s) }

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.Metric {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.Metric)
	for _, f := range families {
		require.NotEmpty(t, f.GetMetric())
		out[f.GetName()] = f.GetMetric()[0]
	}
	return out
}

func TestCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(metrics.NewCollector(staticStats{
		Providers:         2,
		Channels:          5,
		Subscriptions:     3,
		MessagesReceived:  100,
		MessagesDelivered: 250,
		MessagesUnrouted:  7,
		Batches:           40,
		IsRunning:         true,
	}))

	got := gather(t, reg)
	assert.Equal(t, 2.0, got["chatrelay_broker_providers"].GetGauge().GetValue())
	assert.Equal(t, 5.0, got["chatrelay_broker_channels"].GetGauge().GetValue())
	assert.Equal(t, 3.0, got["chatrelay_broker_subscriptions"].GetGauge().GetValue())
	assert.Equal(t, 100.0, got["chatrelay_broker_messages_received_total"].GetCounter().GetValue())
	assert.Equal(t, 250.0, got["chatrelay_broker_messages_delivered_total"].GetCounter().GetValue())
	assert.Equal(t, 7.0, got["chatrelay_broker_messages_unrouted_total"].GetCounter().GetValue())
	assert.Equal(t, 40.0, got["chatrelay_broker_batches_total"].GetCounter().GetValue())
	assert.Equal(t, 1.0, got["chatrelay_broker_running"].GetGauge().GetValue())
}

func TestCollector_LiveBroker(t *testing.T) {
	t.Parallel()

	broker := chat.New()
	reg := metrics.NewRegistry(broker)

	_, err := broker.RegisterProvider("twitch", "Twitch")
	require.NoError(t, err)

	assert.Equal(t, 1, testutil.CollectAndCount(metrics.NewCollector(broker), "chatrelay_broker_providers"))
	assert.Equal(t, 1.0, gather(t, reg)["chatrelay_broker_providers"].GetGauge().GetValue())

	require.NoError(t, broker.Close())
	assert.Equal(t, 0.0, gather(t, reg)["chatrelay_broker_running"].GetGauge().GetValue())
}

func TestNewHTTP(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.NewHTTP(reg)

	m.Requests.WithLabelValues("GET", "/api/channels", "200").Inc()
	m.StreamsActive.Inc()
	m.StreamMessages.Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("GET", "/api/channels", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamsActive))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StreamMessages))
	assert.Panics(t, func() { metrics.NewHTTP(reg) }, "duplicate registration")
}
