package telemetry_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/victornm/mcquiz/internal/domain"
	"github.com/victornm/mcquiz/internal/event"
	"github.com/victornm/mcquiz/internal/telemetry"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	eb := event.NewBus()

	_, err := telemetry.NewMetrics(reg, eb)
	require.NoError(t, err)

	eb.Publish(context.Background(), domain.EventQuizCreated{SessionID: "s1", Questions: 4})
	eb.Publish(context.Background(), domain.EventQuizCreated{SessionID: "s2", Questions: 3})
	eb.Publish(context.Background(), domain.EventQuizGraded{Result: domain.GradeResult{
		SessionID:       "s1",
		ScorePercentage: decimal.NewFromInt(75),
	}})
	eb.Stop()

	n, err := testutil.GatherAndCount(reg,
		"mcquiz_quizzes_created_total",
		"mcquiz_questions_served_total",
		"mcquiz_quizzes_graded_total",
		"mcquiz_score_percentage",
	)
	require.NoError(t, err)
	require.Equal(t, 4, n)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range mfs {
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			values[mf.GetName()] = m.GetCounter().GetValue()
		case m.GetHistogram() != nil:
			values[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
		}
	}

	require.Equal(t, map[string]float64{
		"mcquiz_quizzes_created_total":  2,
		"mcquiz_questions_served_total": 7,
		"mcquiz_quizzes_graded_total":   1,
		"mcquiz_score_percentage":       1,
	}, values)
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := telemetry.NewMetrics(reg, event.NewBus())
	require.NoError(t, err)

	_, err = telemetry.NewMetrics(reg, event.NewBus())
	require.Error(t, err)
}
