package dao

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/vfemart/app/vfe/internal/model"
	"github.com/lk2023060901/vfemart/app/vfe/internal/vfeerr"
)

func sampleRewarded() model.TrainingRewarded {
	var pk model.PublicKey
	pk[0] = 0x02
	var owner model.AccountID
	owner[0] = 0xAA
	return model.TrainingRewarded{
		PublicKey: pk,
		Brand:     1,
		Item:      2,
		Owner:     owner,
		PowerUsed: 6,
		Volume:    120,
		Reward:    12000000,
		Report:    model.TrainingReport{Timestamp: 10000, DurationSeconds: 183, CountedDurationSeconds: 180, Interruptions: 2},
	}
}

func sampleEvent(id int64) model.Event {
	return model.Event{ID: id, Type: model.EventTrainingRewarded, Height: 7, Time: time.Unix(1700000000, 0)}
}

func sampleRecord(t *testing.T, id int64) ReportRecord {
	t.Helper()
	r, err := NewReportRecord(sampleEvent(id), sampleRewarded())
	require.NoError(t, err)
	return r
}

func TestNewReportRecord(t *testing.T) {
	r := sampleRecord(t, 9)
	assert.Equal(t, int64(9), r.EventID)
	assert.Equal(t, int64(10000), r.ReportTimestamp)
	assert.Equal(t, int32(180), r.CountedDurationSeconds)
	assert.Equal(t, int16(2), r.Interruptions)
	assert.Equal(t, int64(12000000), r.Reward)
	assert.Equal(t, int64(7), r.Height)
	assert.True(t, strings.HasPrefix(r.PublicKey, "02"))
}

func TestNewReportRecordOverflow(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ev *model.Event, p *model.TrainingRewarded)
	}{
		{"reward", func(_ *model.Event, p *model.TrainingRewarded) { p.Reward = model.Balance(math.MaxInt64) + 1 }},
		{"volume", func(_ *model.Event, p *model.TrainingRewarded) { p.Volume = math.MaxUint64 }},
		{"height", func(ev *model.Event, _ *model.TrainingRewarded) { ev.Height = model.BlockNumber(uint64(math.MaxInt64) + 1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, p := sampleEvent(1), sampleRewarded()
			tt.mutate(&ev, &p)
			_, err := NewReportRecord(ev, p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, vfeerr.ErrValueOverflow))
			assert.Contains(t, err.Error(), tt.name)
		})
	}

	p := sampleRewarded()
	p.Reward = math.MaxInt64
	r, err := NewReportRecord(sampleEvent(1), p)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), r.Reward)
}

func TestBuildInsertReports(t *testing.T) {
	query, args, err := buildInsertReports([]ReportRecord{sampleRecord(t, 1), sampleRecord(t, 2)})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(query, "INSERT INTO training_reports (event_id,public_key,"))
	assert.Contains(t, query, "$36")
	assert.NotContains(t, query, "$37")
	assert.True(t, strings.HasSuffix(query, "ON CONFLICT (event_id) DO NOTHING"))
	assert.Len(t, args, 2*len(reportColumns))
	assert.Equal(t, int64(1), args[0])
	assert.Equal(t, int64(2), args[len(reportColumns)])
}

func TestBuildListQueries(t *testing.T) {
	var pk model.PublicKey
	query, args, err := buildListByDevice(pk, 0)
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE public_key = $1")
	assert.Contains(t, query, "ORDER BY report_timestamp DESC LIMIT 50")
	assert.Equal(t, []interface{}{pk.String()}, args)

	var owner model.AccountID
	query, _, err = buildListByOwner(owner, 10000)
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE owner = $1")
	assert.Contains(t, query, "LIMIT 500")
}
