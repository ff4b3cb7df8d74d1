//go:build tinygo

package main

import "machine"

const (
	// Pipeline configuration
	SAMPLE_PERIOD_MS    = 500 // Sampler period in milliseconds
	AGGREGATE_PERIOD_MS = 500 // Aggregator period in milliseconds
	NUM_READINGS        = 10  // History slots averaged by the Aggregator
	QUEUE_LENGTH        = 10  // Results buffered for the Reporter

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// PWM period in nanoseconds (1 kHz)
	PWM_PERIOD_NS = 1e6

	// Sensor pin (LDR divider or LM35 output)
	PIN_SENSOR = machine.A0

	// Tier indicator LEDs, lowest tier first
	PIN_LED1 = machine.D7
	PIN_LED2 = machine.D8
	PIN_LED3 = machine.D9
	PIN_LED4 = machine.D10

	// PWM output
	PIN_PWM = machine.D2

	// Serial configuration
	// Worst case per period: 10 "LDR Value: 4095\r\n" echo lines + mean + duty
	// = ~210 bytes every 500 ms, far below 11,520 bytes/sec at 115200.
	UART_BAUD_RATE  = 115200
	SERIAL_LINE_MAX = 32 // Longest accepted host command
	SERIAL_POLL_MS  = 5  // Idle poll interval for host commands
)

var pwm = machine.TCC0
