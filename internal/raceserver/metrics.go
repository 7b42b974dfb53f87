package raceserver

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"justapengu.in/ghostrace/internal/race"
)

// metrics records race activity for prometheus. It listens to race events like any other listener.
type metrics struct {
	registry *prometheus.Registry

	ticks         prometheus.Counter
	tickDuration  prometheus.Histogram
	countdowns    prometheus.Counter
	racesStarted  prometheus.Counter
	collisions    *prometheus.CounterVec
	finishes      *prometheus.CounterVec
	raceDuration  prometheus.Histogram
	carSpeed      *prometheus.GaugeVec
	streamClients prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),

		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghostrace",
			Name:      "ticks_total",
			Help:      "Number of simulation ticks run.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ghostrace",
			Name:      "tick_duration_seconds",
			Help:      "Time taken to run a single simulation tick.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}),
		countdowns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghostrace",
			Name:      "countdowns_total",
			Help:      "Number of countdowns that reached go.",
		}),
		racesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghostrace",
			Name:      "races_started_total",
			Help:      "Number of races started.",
		}),
		collisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ghostrace",
			Name:      "collisions_total",
			Help:      "Number of car-car contacts, by the car that was pushed.",
		}, []string{"car"}),
		finishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ghostrace",
			Name:      "finishes_total",
			Help:      "Number of finished races, by winner.",
		}, []string{"winner"}),
		raceDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ghostrace",
			Name:      "race_duration_seconds",
			Help:      "Time from the start of a race to its finish.",
			Buckets:   prometheus.LinearBuckets(10, 10, 12),
		}),
		carSpeed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ghostrace",
			Name:      "car_speed",
			Help:      "Last reported speed of each car, in units per tick.",
		}, []string{"car"}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ghostrace",
			Name:      "stream_clients",
			Help:      "Number of connected websocket stream clients.",
		}),
	}

	m.registry.MustRegister(
		m.ticks,
		m.tickDuration,
		m.countdowns,
		m.racesStarted,
		m.collisions,
		m.finishes,
		m.raceDuration,
		m.carSpeed,
		m.streamClients,
	)

	return m
}

func (m *metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) Init(_ race.RaceControl, _ race.Logger) error {
	return nil
}

func (m *metrics) OnCountdown(step race.CountdownStep) error {
	if step.Remaining == 0 {
		m.countdowns.Inc()
	}

	return nil
}

func (m *metrics) OnRaceStarted(_ race.RaceStarted) error {
	m.racesStarted.Inc()

	return nil
}

func (m *metrics) OnCollision(collision race.Collision) error {
	m.collisions.WithLabelValues(string(collision.Car)).Inc()

	return nil
}

func (m *metrics) OnFinish(finish race.Finish) error {
	m.finishes.WithLabelValues(string(finish.Winner)).Inc()
	m.raceDuration.Observe(finish.Elapsed.Seconds())

	return nil
}

func (m *metrics) OnReset() error {
	return nil
}

func (m *metrics) OnCarUpdate(update race.CarUpdate) error {
	m.carSpeed.WithLabelValues(string(update.Role)).Set(update.State.Speed)

	return nil
}
