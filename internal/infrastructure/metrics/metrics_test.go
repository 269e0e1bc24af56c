package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordEvent("submission")
	m.RecordEvent("submission")
	m.RecordCommand("status", "ok")
	m.RecordCommand("", "permission")
	m.RecordSnapshotWrite(0.01, nil)
	m.RecordSnapshotWrite(0.01, errors.New("disk full"))
	m.RecordRender(0.1, errors.New("template"))
	m.UpdateNewsItems(3)
	m.RecordKafkaMessage(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsTotal.WithLabelValues("submission")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues("unknown", "permission")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotWrites))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SnapshotWriteErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RendersTotal.WithLabelValues("error")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.NewsItems))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.KafkaMessagesProduced))
}

func TestGetDefaultMetrics_Singleton(t *testing.T) {
	assert.Same(t, GetDefaultMetrics(), GetDefaultMetrics())
}
