package manager

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики протокольного движка. Регистрируются в глобальном реестре
// prometheus и разделяются всеми сессиями процесса; экспорт наружу
// (promhttp) остаётся на усмотрение приложения.
var (
	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ami",
		Subsystem: "manager",
		Name:      "frames_total",
		Help:      "Разобранных кадров всего.",
	})

	framesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ami",
		Subsystem: "manager",
		Name:      "frames_dropped_total",
		Help:      "Кадров без распознанного вида, отброшенных диспетчером.",
	})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ami",
		Subsystem: "manager",
		Name:      "events_total",
		Help:      "Диспетчеризованных событий по видам.",
	}, []string{"kind"})

	actionsPending = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ami",
		Subsystem: "manager",
		Name:      "actions_pending",
		Help:      "Команд, ожидающих ответа.",
	})

	participantsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "ami",
		Subsystem: "manager",
		Name:      "participants_active",
		Help:      "Отслеживаемых ног вызовов.",
	})
)
