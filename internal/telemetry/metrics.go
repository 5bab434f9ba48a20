package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/victornm/mcquiz/internal/domain"
	"github.com/victornm/mcquiz/internal/event"
)

// Metrics counts quiz activity. It is fed by the events of the quiz lifecycle.
type Metrics struct {
	quizzesCreated  prometheus.Counter
	questionsServed prometheus.Counter
	quizzesGraded   prometheus.Counter
	scores          prometheus.Histogram
}

// NewMetrics registers the quiz metrics on reg and subscribes them to eb.
func NewMetrics(reg prometheus.Registerer, eb *event.Bus) (*Metrics, error) {
	m := &Metrics{
		quizzesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mcquiz",
			Name:      "quizzes_created_total",
			Help:      "Number of quizzes handed out.",
		}),
		questionsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mcquiz",
			Name:      "questions_served_total",
			Help:      "Number of questions handed out across all quizzes.",
		}),
		quizzesGraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mcquiz",
			Name:      "quizzes_graded_total",
			Help:      "Number of quizzes graded.",
		}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mcquiz",
			Name:      "score_percentage",
			Help:      "Score percentage of graded quizzes.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
	}

	for _, c := range []prometheus.Collector{m.quizzesCreated, m.questionsServed, m.quizzesGraded, m.scores} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	eb.Subscribe(domain.EventNameQuizCreated, func(_ context.Context, e event.Event) error {
		m.ObserveQuizCreated(e.(domain.EventQuizCreated))
		return nil
	})
	eb.Subscribe(domain.EventNameQuizGraded, func(_ context.Context, e event.Event) error {
		m.ObserveQuizGraded(e.(domain.EventQuizGraded))
		return nil
	})

	return m, nil
}

func (m *Metrics) ObserveQuizCreated(e domain.EventQuizCreated) {
	m.quizzesCreated.Inc()
	m.questionsServed.Add(float64(e.Questions))
}

func (m *Metrics) ObserveQuizGraded(e domain.EventQuizGraded) {
	m.quizzesGraded.Inc()
	m.scores.Observe(e.Result.ScorePercentage.InexactFloat64())
}
