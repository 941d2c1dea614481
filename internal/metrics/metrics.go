// Package metrics собирает метрики симуляции кораблей для Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/voxel-ships/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ships"

// Simulation метрики тикового цикла флота
type Simulation struct {
	Ticks            prometheus.Counter
	TickDuration     prometheus.Histogram
	ActiveShips      prometheus.Gauge
	ShipBlocks       prometheus.Gauge
	Launches         prometheus.Counter
	Sunk             prometheus.Counter
	Destroyed        prometheus.Counter
	Unlaunches       *prometheus.CounterVec
	WaterWrites      prometheus.Counter
	Collisions       prometheus.Counter
	Corrections      prometheus.Counter
	RidersMoved      prometheus.Counter
	WorldBlockWrites prometheus.Counter
	Saves            *prometheus.CounterVec
}

// NewSimulation создаёт метрики и регистрирует их в reg
func NewSimulation(reg prometheus.Registerer) (*Simulation, error) {
	m := &Simulation{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Число тиков симуляции.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Длительность тика всего флота.",
			Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		ActiveShips: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active",
			Help:      "Количество активных кораблей.",
		}),
		ShipBlocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blocks",
			Help:      "Суммарное число блоков в активных кораблях.",
		}),
		Launches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "launches_total",
			Help:      "Спущенные на воду корабли.",
		}),
		Sunk: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sunk_total",
			Help:      "Затонувшие корабли.",
		}),
		Destroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "destroyed_total",
			Help:      "Уничтоженные корабли.",
		}),
		Unlaunches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unlaunches_total",
			Help:      "Попытки вернуть корабль в мир по результату.",
		}, []string{"result"}),
		WaterWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "water_writes_total",
			Help:      "Записи заглушек и возвраты воды в мир.",
		}),
		Collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collisions_total",
			Help:      "Тики, в которых скорость была срезана столкновением.",
		}),
		Corrections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "server_corrections_total",
			Help:      "Применённые серверные поправки позы.",
		}),
		RidersMoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "riders_moved_total",
			Help:      "Перемещения пассажиров вместе с кораблём.",
		}),
		WorldBlockWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "world_block_writes_total",
			Help:      "Изменения блоков мира.",
		}),
		Saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saves_total",
			Help:      "Сохранения кораблей по результату.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{
		m.Ticks, m.TickDuration, m.ActiveShips, m.ShipBlocks, m.Launches, m.Sunk,
		m.Destroyed, m.Unlaunches, m.WaterWrites, m.Collisions, m.Corrections,
		m.RidersMoved, m.WorldBlockWrites, m.Saves,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewRegistry создаёт реестр с метриками процесса и рантайма Go
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Serve отдаёт /metrics на addr до отмены ctx
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logging.Info("Prometheus /metrics доступен по адресу %s", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
