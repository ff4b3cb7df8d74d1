package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
	"github.com/itohio/rtlab/pkg/history"
	"github.com/itohio/rtlab/pkg/queue"
	"github.com/itohio/rtlab/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ldrTable = actuate.Table{
	Mode:       actuate.Stepped,
	Thresholds: []adc.Reading{3000, 3500, 4000},
	Fractions:  []float32{0, 0.25, 0.5, 0.75},
}

func TestSampler_WritesReadings(t *testing.T) {
	src := &scriptSource{values: []adc.Reading{100, 200, 300}}
	hist := history.New(3)
	stats := &Stats{}
	s := NewSampler(src, hist, time.Millisecond, time.Millisecond, adc.Scale{}, stats)

	for _, want := range []adc.Reading{100, 200, 300} {
		got, err := s.Sample()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	assert.Equal(t, []adc.Reading{100, 200, 300}, hist.Snapshot())
	assert.Equal(t, uint64(3), stats.Samples.Load())
	assert.Equal(t, uint64(0), stats.Faults.Load())
}

func TestSampler_FaultSkipsWrite(t *testing.T) {
	src := &scriptSource{values: []adc.Reading{7, faultValue, 9}}
	hist := history.New(3)
	stats := &Stats{}
	s := NewSampler(src, hist, time.Millisecond, time.Millisecond, adc.Scale{}, stats)

	_, err := s.Sample()
	require.NoError(t, err)
	_, err = s.Sample()
	assert.ErrorIs(t, err, adc.ErrConversion)
	_, err = s.Sample()
	require.NoError(t, err)

	assert.Equal(t, []adc.Reading{0, 7, 9}, hist.Snapshot(), "faulted sample must not be written")
	assert.Equal(t, uint64(2), hist.Written())
	assert.Equal(t, uint64(1), stats.Faults.Load())
}

func TestSampler_Scale(t *testing.T) {
	src := &scriptSource{values: []adc.Reading{1241}}
	hist := history.New(1)
	s := NewSampler(src, hist, time.Millisecond, time.Millisecond,
		adc.Scale{VRef: 3.3, FullScale: adc.FullScale12, UnitsPerVolt: 100}, nil)

	got, err := s.Sample()
	require.NoError(t, err)
	assert.Equal(t, adc.Reading(100), got)
	assert.Equal(t, []adc.Reading{100}, hist.Snapshot())
}

// Five real writes and five default slots average to 25/10 = 2.
func TestAggregator_WarmUpMean(t *testing.T) {
	hist := history.New(10)
	for range 5 {
		hist.Write(5)
	}
	q := queue.New[report.Record](1)
	a := NewAggregator(hist, q, time.Millisecond, nil, nil, nil)

	rec, ok := a.Tick()
	require.True(t, ok)
	assert.Equal(t, adc.Reading(2), rec.Aggregate.Value())
	assert.False(t, rec.Actuated)

	got, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, adc.Reading(2), got.Aggregate.Value())
	assert.Len(t, got.Aggregate.Slots, 10)
}

func TestAggregator_DropsOnFullQueue(t *testing.T) {
	hist := history.New(2)
	q := queue.New[report.Record](2)
	stats := &Stats{}
	a := NewAggregator(hist, q, time.Millisecond, nil, nil, stats)

	hist.Write(10)
	_, ok := a.Tick()
	require.True(t, ok)
	hist.Write(20)
	_, ok = a.Tick()
	require.True(t, ok)

	hist.Write(30)
	done := make(chan bool, 1)
	go func() {
		_, ok := a.Tick()
		done <- ok
	}()

	select {
	case ok := <-done:
		assert.False(t, ok, "push on a full queue must fail")
	case <-time.After(time.Second):
		t.Fatal("Tick blocked on a full queue")
	}

	assert.Equal(t, uint64(3), stats.Aggregates.Load())
	assert.Equal(t, uint64(1), stats.Dropped.Load())
	assert.Equal(t, 2, q.Len())

	first, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, adc.Reading(5), first.Aggregate.Value())
	second, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, adc.Reading(15), second.Aggregate.Value())
}

func TestAggregator_Actuation(t *testing.T) {
	tests := []struct {
		name  string
		value adc.Reading
		want  actuate.Result
	}{
		{name: "below thresholds", value: 2800, want: actuate.Result{Tier: 0, Fraction: 0}},
		{name: "middle tier", value: 3600, want: actuate.Result{Tier: 2, Fraction: 0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hist := history.New(1)
			hist.Write(tt.value)
			out := &recordingOutput{}
			a := NewAggregator(hist, queue.New[report.Record](1), time.Millisecond, &ldrTable, out, nil)

			rec, _ := a.Tick()
			assert.True(t, rec.Actuated)
			assert.Equal(t, tt.want, rec.Actuation)
			assert.Equal(t, []actuate.Result{tt.want}, out.results())
		})
	}
}

func TestAggregator_OutputErrorIsCounted(t *testing.T) {
	hist := history.New(1)
	out := &recordingOutput{err: errors.New("pwm busy")}
	stats := &Stats{}
	a := NewAggregator(hist, queue.New[report.Record](1), time.Millisecond, &ldrTable, out, stats)

	_, ok := a.Tick()
	assert.True(t, ok, "output errors must not stop the hand-off")
	assert.Equal(t, uint64(1), stats.OutputErrors.Load())
}

func TestReporter_Emit(t *testing.T) {
	sink := &lockedBuffer{}
	stats := &Stats{}
	r := NewReporter(queue.New[report.Record](1), sink, report.NewFormatter(report.Options{}, 0), stats)

	var seen []report.Record
	r.OnReport(func(rec report.Record) { seen = append(seen, rec) })

	r.Emit(report.Record{Aggregate: history.Mean([]adc.Reading{4, 6})})
	r.Emit(report.Record{Aggregate: history.Mean([]adc.Reading{8})})

	assert.Equal(t, "Media: 5\r\nMedia: 8\r\n", sink.String())
	assert.Len(t, seen, 2)
	assert.Equal(t, uint64(2), stats.Reports.Load())
}

func TestReporter_SinkErrorIsCounted(t *testing.T) {
	sink := &lockedBuffer{err: errors.New("uart busy")}
	stats := &Stats{}
	r := NewReporter(queue.New[report.Record](1), sink, report.NewFormatter(report.Options{}, 0), stats)

	var seen int
	r.OnReport(func(report.Record) { seen++ })

	r.Emit(report.Record{Aggregate: history.Mean([]adc.Reading{1})})
	assert.Equal(t, uint64(1), stats.SinkErrors.Load())
	assert.Equal(t, uint64(0), stats.Reports.Load(), "failed writes are not reports")
	assert.Equal(t, 1, seen, "observers still see the record")

	sink.setErr(nil)
	r.Emit(report.Record{Aggregate: history.Mean([]adc.Reading{2})})
	assert.Equal(t, uint64(1), stats.SinkErrors.Load())
	assert.Equal(t, uint64(1), stats.Reports.Load())
}

func TestReporter_FIFO(t *testing.T) {
	q := queue.New[report.Record](5)
	for _, v := range []adc.Reading{1, 2, 3} {
		require.True(t, q.TryPush(report.Record{Aggregate: history.Mean([]adc.Reading{v})}))
	}

	sink := &lockedBuffer{}
	r := NewReporter(q, sink, report.NewFormatter(report.Options{}, 0), nil)
	ctx, cancel := context.WithCancel(context.Background())

	emitted := make(chan struct{}, 3)
	r.OnReport(func(report.Record) { emitted <- struct{}{} })

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	for range 3 {
		select {
		case <-emitted:
		case <-time.After(time.Second):
			t.Fatal("reporter did not emit queued records")
		}
	}
	cancel()
	<-done

	assert.Equal(t, "Media: 1\r\nMedia: 2\r\nMedia: 3\r\n", sink.String())
}

func TestPipeline_EndToEnd(t *testing.T) {
	src := &scriptSource{values: []adc.Reading{3600}}
	sink := &lockedBuffer{}
	out := &recordingOutput{}

	p := New(Options{
		SamplePeriod:    2 * time.Millisecond,
		AggregatePeriod: 5 * time.Millisecond,
		HistorySize:     4,
		QueueSize:       4,
		Table:           &ldrTable,
		PWMTop:          1000,
		Report:          report.Options{DutyLine: true},
	}, src, sink, out)

	reported := make(chan struct{}, 1)
	p.Reporter.OnReport(func(rec report.Record) {
		if rec.Aggregate.Value() == 3600 {
			select {
			case reported <- struct{}{}:
			default:
			}
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case <-reported:
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline never reported a warmed-up mean")
	}
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pipeline did not shut down")
	}

	assert.Contains(t, sink.String(), "Media: 3600\r\nDuty cycle: 500\r\n")
	for _, line := range strings.Split(strings.TrimSpace(sink.String()), "\r\n") {
		assert.True(t, strings.HasPrefix(line, "Media: ") || strings.HasPrefix(line, "Duty cycle: "), "unexpected line %q", line)
	}

	stats := p.Stats.Snapshot()
	assert.Positive(t, stats.Samples)
	assert.Positive(t, stats.Aggregates)
	assert.Equal(t, stats.Aggregates, stats.Reports+stats.SinkErrors+stats.Dropped+uint64(p.Queue.Len()))
	assert.NotEmpty(t, out.results())
}

// Sampler and Aggregator keep running when the Reporter's sink is failing and
// when conversions fault.
func TestPipeline_FaultsDoNotStopTasks(t *testing.T) {
	src := &scriptSource{values: []adc.Reading{faultValue}}
	sink := &lockedBuffer{err: errors.New("sink down")}

	p := New(Options{
		SamplePeriod:    time.Millisecond,
		AggregatePeriod: time.Millisecond,
		QueueSize:       1,
	}, src, sink, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	stats := p.Stats.Snapshot()
	assert.Greater(t, stats.Faults, uint64(1))
	assert.Equal(t, uint64(0), stats.Samples)
	assert.Greater(t, stats.Aggregates, uint64(1))
	assert.Greater(t, stats.SinkErrors, uint64(0))
	assert.Equal(t, uint64(0), stats.Reports)
}

func TestPipeline_Defaults(t *testing.T) {
	p := New(Options{}, &scriptSource{values: []adc.Reading{1}}, &lockedBuffer{}, nil)
	assert.Equal(t, history.DefaultSize, p.History.Cap())
	assert.Equal(t, queue.DefaultCapacity, p.Queue.Cap())
	assert.Equal(t, DefaultSamplePeriod, p.Sampler.period)
	assert.Equal(t, DefaultAggregatePeriod, p.Aggregator.period)
}
