//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"context"
	"machine"
	"sync"
	"time"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
	"github.com/itohio/rtlab/pkg/pipeline"
	"github.com/itohio/rtlab/pkg/report"
	"github.com/itohio/rtlab/pkg/wire"
)

var (
	uart = machine.UART0
	leds = [...]machine.Pin{PIN_LED1, PIN_LED2, PIN_LED3, PIN_LED4}

	// LDR lab table: darker readings light higher tiers and raise the duty.
	table = actuate.Table{
		Mode:       actuate.Stepped,
		Thresholds: []adc.Reading{3000, 3500, 4000},
		Fractions:  []float32{0, 0.25, 0.5, 0.75},
	}
)

// sensor is the on-chip converter. machine.ADC.Get is synchronous, so the
// conversion completes inside StartConversion.
type sensor struct {
	mu    sync.Mutex
	adc   machine.ADC
	value adc.Reading
	ready bool
}

func (s *sensor) StartConversion() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Get returns a 16-bit left-aligned sample.
	s.value = adc.Reading(s.adc.Get() >> (16 - ADC_RESOLUTION))
	s.ready = true
	return nil
}

func (s *sensor) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *sensor) Read() (adc.Reading, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return 0, adc.ErrNotReady
	}
	s.ready = false
	return s.value, nil
}

// convert runs one conversion for a host "c" request without touching the
// result latched for the Sampler.
func (s *sensor) convert() adc.Reading {
	s.mu.Lock()
	defer s.mu.Unlock()
	return adc.Reading(s.adc.Get() >> (16 - ADC_RESOLUTION))
}

// outputs drives the tier LEDs and the PWM channel. Once the host sends an
// "o" command the local results are ignored.
type outputs struct {
	mu      sync.Mutex
	channel uint8
	remote  bool
}

func (o *outputs) Apply(r actuate.Result) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.remote {
		return nil
	}
	o.set(r)
	return nil
}

func (o *outputs) applyRemote(cmd wire.Output) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.remote = true
	o.set(actuate.Result{Tier: cmd.Tier, Fraction: float32(cmd.Permille) / wire.MaxPermille})
}

func (o *outputs) set(r actuate.Result) {
	mask := actuate.Indicator(r, len(leds))
	for i, led := range leds {
		led.Set(mask&(1<<i) != 0)
	}
	pwm.Set(o.channel, r.Duty(pwm.Top()))
}

// uartWriter serializes writes from the Reporter and the command handler.
type uartWriter struct {
	mu sync.Mutex
}

func (w *uartWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return uart.Write(p)
}

func main() {
	for _, led := range leds {
		led.Configure(machine.PinConfig{Mode: machine.PinOutput})
		led.Low()
	}

	machine.InitADC()
	PIN_SENSOR.Configure(machine.PinConfig{Mode: machine.PinInput})
	src := &sensor{adc: machine.ADC{Pin: PIN_SENSOR}}
	src.adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})
	sink := &uartWriter{}

	if err := pwm.Configure(machine.PWMConfig{Period: PWM_PERIOD_NS}); err != nil {
		println("failed to configure PWM")
		return
	}
	channel, err := pwm.Channel(PIN_PWM)
	if err != nil {
		println("failed to configure PWM channel")
		return
	}
	out := &outputs{channel: channel}

	p := pipeline.New(pipeline.Options{
		SamplePeriod:    SAMPLE_PERIOD_MS * time.Millisecond,
		AggregatePeriod: AGGREGATE_PERIOD_MS * time.Millisecond,
		HistorySize:     NUM_READINGS,
		QueueSize:       QUEUE_LENGTH,
		Table:           &table,
		PWMTop:          pwm.Top(),
		Report: report.Options{
			EchoHistory: true,
			DutyLine:    true,
		},
	}, src, sink, out)

	go processSerial(src, out, sink)

	p.Run(context.Background())
}

// processSerial answers host commands. "c,<seq>" replies with
// "r,<seq>,<raw>" and "o,<tier>,<permille>" takes over the outputs.
func processSerial(src *sensor, out *outputs, sink *uartWriter) {
	var (
		line  [SERIAL_LINE_MAX]byte
		pos   int
		reply = make([]byte, 0, 16)
	)

	for {
		for uart.Buffered() > 0 {
			data, err := uart.ReadByte()
			if err != nil {
				break
			}

			if data != '\n' && data != '\r' {
				// Overlong lines are dropped at the next newline
				if pos < len(line) {
					line[pos] = data
				}
				pos++
				continue
			}

			if pos == 0 || pos > len(line) {
				pos = 0
				continue
			}
			cmd := string(line[:pos])
			pos = 0

			if seq, err := wire.ParseConvert(cmd); err == nil {
				reply = wire.AppendConversion(reply[:0], wire.Conversion{Seq: seq, Raw: uint32(src.convert())})
				sink.Write(reply)
				continue
			}
			if o, err := wire.ParseOutput(cmd); err == nil {
				out.applyRemote(o)
			}
		}

		time.Sleep(SERIAL_POLL_MS * time.Millisecond)
	}
}
