package board

import (
	"testing"
	"time"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
	"github.com/itohio/rtlab/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_ConnectClose(t *testing.T) {
	mock := NewMock(nil)
	assert.False(t, mock.IsConnected())
	assert.ErrorIs(t, mock.StartConversion(), ErrNotConnected)

	require.NoError(t, mock.Connect())
	assert.True(t, mock.IsConnected())
	assert.ErrorIs(t, mock.Connect(), ErrAlreadyConnected)

	require.NoError(t, mock.Close())
	assert.False(t, mock.IsConnected())
	assert.NoError(t, mock.Close())
}

func TestMock_ScriptedValues(t *testing.T) {
	mock := NewMock(&config.MockConfig{Values: []uint32{10, 20, 30}})
	require.NoError(t, mock.Connect())

	var got []adc.Reading
	for range 5 {
		v, err := adc.Convert(mock, time.Second)
		require.NoError(t, err)
		got = append(got, v)
	}
	assert.Equal(t, []adc.Reading{10, 20, 30, 10, 20}, got)
}

func TestMock_WaveformStaysInRange(t *testing.T) {
	cfg := &config.MockConfig{
		Min:    1000,
		Max:    2000,
		Period: 10 * time.Millisecond,
		Noise:  500,
	}
	mock := NewMock(cfg)
	require.NoError(t, mock.Connect())

	for range 200 {
		v, err := adc.Convert(mock, time.Second)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, adc.Reading(1000))
		assert.LessOrEqual(t, v, adc.Reading(2000))
	}
}

func TestMock_FaultEvery(t *testing.T) {
	mock := NewMock(&config.MockConfig{Values: []uint32{5}, FaultEvery: 3})
	require.NoError(t, mock.Connect())

	var faults int
	for range 9 {
		if _, err := adc.Convert(mock, time.Second); err != nil {
			assert.ErrorIs(t, err, adc.ErrConversion)
			faults++
		}
	}
	assert.Equal(t, 3, faults)
}

func TestMock_Latency(t *testing.T) {
	mock := NewMock(&config.MockConfig{Values: []uint32{5}, Latency: time.Hour})
	require.NoError(t, mock.Connect())

	_, err := adc.Convert(mock, 5*time.Millisecond)
	assert.ErrorIs(t, err, adc.ErrNotReady)
}

func TestMock_ReadWithoutStart(t *testing.T) {
	mock := NewMock(nil)
	require.NoError(t, mock.Connect())

	_, err := mock.Read()
	assert.ErrorIs(t, err, adc.ErrNotReady)
}

func TestMock_Apply(t *testing.T) {
	mock := NewMock(nil)
	_, ok := mock.Last()
	assert.False(t, ok)
	assert.ErrorIs(t, mock.Apply(actuate.Result{}), ErrNotConnected)

	require.NoError(t, mock.Connect())
	want := actuate.Result{Tier: 2, Fraction: 0.5}
	require.NoError(t, mock.Apply(want))

	got, ok := mock.Last()
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
