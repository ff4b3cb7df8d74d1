package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/itohio/rtlab/pkg/actuate"
	"github.com/itohio/rtlab/pkg/adc"
	"github.com/itohio/rtlab/pkg/config"
)

// mapperTable returns the configured table, or nil when actuation is off.
func mapperTable(cfg *config.Config) *actuate.Table {
	if !cfg.Mapper.Enabled {
		return nil
	}
	t := cfg.Mapper.Table
	return &t
}

func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
}

func parseReadings(s string) ([]adc.Reading, error) {
	fields := splitList(s)
	out := make([]adc.Reading, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid threshold %q: %w", f, err)
		}
		out = append(out, adc.Reading(v))
	}
	return out, nil
}

func parseFractions(s string) ([]float32, error) {
	fields := splitList(s)
	out := make([]float32, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid fraction %q: %w", f, err)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

func formatReadings(rs []adc.Reading) string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = strconv.FormatUint(uint64(r), 10)
	}
	return strings.Join(parts, ", ")
}

func formatFractions(fs []float32) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return strings.Join(parts, ", ")
}
