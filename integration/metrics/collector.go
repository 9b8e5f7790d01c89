// Package metrics exposes chat broker statistics to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/chatrelay/core/chat"
)

const namespace = "chatrelay"

// StatsSource is anything reporting broker statistics. *chat.Broker implements it.
type StatsSource interface {
	Stats() chat.Stats
}

// Collector reads broker statistics on every scrape.
type Collector struct {
	source StatsSource

	providers     *prometheus.Desc
	channels      *prometheus.Desc
	subscriptions *prometheus.Desc
	received      *prometheus.Desc
	delivered     *prometheus.Desc
	unrouted      *prometheus.Desc
	batches       *prometheus.Desc
	running       *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector over source.
func NewCollector(source StatsSource) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "broker", name), help, nil, nil)
	}
	return &Collector{
		source:        source,
		providers:     desc("providers", "Number of registered chat providers."),
		channels:      desc("channels", "Number of registered chat channels."),
		subscriptions: desc("subscriptions", "Number of active subscriptions."),
		received:      desc("messages_received_total", "Messages taken from the incoming queue."),
		delivered:     desc("messages_delivered_total", "Message copies handed to subscriptions."),
		unrouted:      desc("messages_unrouted_total", "Messages no subscription matched."),
		batches:       desc("batches_total", "Batches processed by the dispatcher."),
		running:       desc("running", "1 while the dispatcher is running."),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.providers
	ch <- c.channels
	ch <- c.subscriptions
	ch <- c.received
	ch <- c.delivered
	ch <- c.unrouted
	ch <- c.batches
	ch <- c.running
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()

	running := 0.0
	if s.IsRunning {
		running = 1
	}

	ch <- prometheus.MustNewConstMetric(c.providers, prometheus.GaugeValue, float64(s.Providers))
	ch <- prometheus.MustNewConstMetric(c.channels, prometheus.GaugeValue, float64(s.Channels))
	ch <- prometheus.MustNewConstMetric(c.subscriptions, prometheus.GaugeValue, float64(s.Subscriptions))
	ch <- prometheus.MustNewConstMetric(c.received, prometheus.CounterValue, float64(s.MessagesReceived))
	ch <- prometheus.MustNewConstMetric(c.delivered, prometheus.CounterValue, float64(s.MessagesDelivered))
	ch <- prometheus.MustNewConstMetric(c.unrouted, prometheus.CounterValue, float64(s.MessagesUnrouted))
	ch <- prometheus.MustNewConstMetric(c.batches, prometheus.CounterValue, float64(s.Batches))
	ch <- prometheus.MustNewConstMetric(c.running, prometheus.GaugeValue, running)
}
