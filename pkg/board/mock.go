package board

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
	"github.com/itohio/rtlab/pkg/config"
)

// Mock simulates a board for testing and development. Without scripted
// values it produces a slow sine between Min and Max plus uniform noise.
type Mock struct {
	cfg *config.MockConfig

	mu        sync.Mutex
	connected bool
	startTime time.Time
	rng       *rand.Rand

	// Conversion state
	started    int
	converting bool
	readyAt    time.Time
	value      adc.Reading
	fault      bool

	// Output state
	last    actuate.Result
	applied int
}

// NewMock creates a new mocked board.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		def := config.Default().Mock
		cfg = &def
	}

	return &Mock{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(1, 2)),
	}
}

// Connect simulates connecting to the board.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}

	m.connected = true
	m.startTime = time.Now()
	return nil
}

// Close disconnects the mocked board.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connected = false
	m.converting = false
	return nil
}

// IsConnected returns whether the board is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// StartConversion latches the next simulated value.
func (m *Mock) StartConversion() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}

	m.started++
	now := time.Now()
	m.value = m.generate(now)
	m.fault = m.cfg.FaultEvery > 0 && m.started%m.cfg.FaultEvery == 0
	m.readyAt = now.Add(m.cfg.Latency)
	m.converting = true
	return nil
}

// IsReady reports whether the simulated latency has elapsed.
func (m *Mock) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.converting && !time.Now().Before(m.readyAt)
}

// Read returns the latched value.
func (m *Mock) Read() (adc.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.converting {
		return 0, adc.ErrNotReady
	}
	m.converting = false
	if m.fault {
		return 0, adc.ErrConversion
	}
	return m.value, nil
}

// Apply records the actuation result.
func (m *Mock) Apply(r actuate.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return ErrNotConnected
	}
	m.last = r
	m.applied++
	return nil
}

// Last returns the most recent actuation result and whether any was applied.
func (m *Mock) Last() (actuate.Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.applied > 0
}

// generate produces the value for the current conversion. Caller holds m.mu.
func (m *Mock) generate(now time.Time) adc.Reading {
	if n := len(m.cfg.Values); n > 0 {
		return adc.Reading(m.cfg.Values[(m.started-1)%n])
	}

	lo, hi := float64(m.cfg.Min), float64(m.cfg.Max)
	mid := (lo + hi) / 2
	amp := (hi - lo) / 2

	phase := 0.0
	if m.cfg.Period > 0 {
		phase = 2 * math.Pi * float64(now.Sub(m.startTime)) / float64(m.cfg.Period)
	}
	v := mid + amp*math.Sin(phase)

	if m.cfg.Noise > 0 {
		noise := float64(m.cfg.Noise)
		v += (m.rng.Float64()*2 - 1) * noise
	}

	v = math.Max(lo, math.Min(hi, v))
	return adc.Reading(v)
}
