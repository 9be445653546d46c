package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the Prometheus metrics of the bot. A nil *Collector is a
// valid no-op collector.
type Collector struct {
	registry *prometheus.Registry

	MessagesHandled   *prometheus.CounterVec
	ParseFailures     prometheus.Counter
	RemindersCreated  *prometheus.CounterVec
	Acknowledgments   prometheus.Counter
	NotificationsSent *prometheus.CounterVec
	DeliveryFailures  prometheus.Counter
	PersistFailures   prometheus.Counter
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	messagesHandled := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_handled_total",
			Help:      "Inbound messages by kind (text or command) and conversation stage",
		},
		[]string{"kind", "stage"},
	)

	parseFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datetime_parse_failures_total",
			Help:      "Date/time pairs that matched no supported layout",
		},
	)

	remindersCreated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_created_total",
			Help:      "Reminders created by category",
		},
		[]string{"category"},
	)

	acknowledgments := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_acknowledged_total",
			Help:      "Reminders acknowledged by users",
		},
	)

	notificationsSent := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Staged notifications delivered by stage",
		},
		[]string{"stage"},
	)

	deliveryFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Messages the delivery channel failed to send",
		},
	)

	persistFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Store mutations whose full rewrite failed",
		},
	)

	registry.MustRegister(
		messagesHandled,
		parseFailures,
		remindersCreated,
		acknowledgments,
		notificationsSent,
		deliveryFailures,
		persistFailures,
	)

	return &Collector{
		registry:          registry,
		MessagesHandled:   messagesHandled,
		ParseFailures:     parseFailures,
		RemindersCreated:  remindersCreated,
		Acknowledgments:   acknowledgments,
		NotificationsSent: notificationsSent,
		DeliveryFailures:  deliveryFailures,
		PersistFailures:   persistFailures,
	}
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return prometheus.NewRegistry()
	}
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{})
}

func (c *Collector) MessageHandled(kind, stage string) {
	if c == nil {
		return
	}
	c.MessagesHandled.WithLabelValues(kind, stage).Inc()
}

func (c *Collector) ParseFailed() {
	if c == nil {
		return
	}
	c.ParseFailures.Inc()
}

func (c *Collector) ReminderCreated(category string) {
	if c == nil {
		return
	}
	c.RemindersCreated.WithLabelValues(category).Inc()
}

func (c *Collector) Acknowledged(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.Acknowledgments.Add(float64(n))
}

func (c *Collector) NotificationSent(stage int) {
	if c == nil {
		return
	}
	c.NotificationsSent.WithLabelValues(strconv.Itoa(stage)).Inc()
}

func (c *Collector) DeliveryFailed() {
	if c == nil {
		return
	}
	c.DeliveryFailures.Inc()
}

func (c *Collector) PersistFailed() {
	if c == nil {
		return
	}
	c.PersistFailures.Inc()
}
