package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConversion(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Conversion
		wantErr error
		anyErr  bool
	}{
		{name: "valid", line: "r,1,2048", want: Conversion{Seq: 1, Raw: 2048}},
		{name: "valid with CRLF", line: "r,7,4095\r\n", want: Conversion{Seq: 7, Raw: 4095}},
		{name: "zero", line: "r,0,0", want: Conversion{}},
		{name: "fault", line: "e,3", want: Conversion{Seq: 3}, wantErr: ErrFault},
		{name: "report line", line: "Media: 42", wantErr: ErrNotMessage},
		{name: "echo line", line: "LDR Value: 3600", wantErr: ErrNotMessage},
		{name: "empty", line: "", wantErr: ErrNotMessage},
		{name: "fault without sequence", line: "e", wantErr: ErrNotMessage},
		{name: "missing sequence", line: "r,2048", anyErr: true},
		{name: "non-numeric", line: "r,1,abc", anyErr: true},
		{name: "negative", line: "r,1,-1", anyErr: true},
		{name: "bad fault sequence", line: "e,x", anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConversion(tt.line)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.want, got)
			case tt.anyErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, ErrNotMessage)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAppendConversion(t *testing.T) {
	assert.Equal(t, "r,5,3600\n", string(AppendConversion(nil, Conversion{Seq: 5, Raw: 3600})))
	assert.Equal(t, "e,9\n", string(AppendFault(nil, 9)))

	got, err := ParseConversion(string(AppendConversion(nil, Conversion{Seq: 42, Raw: 123})))
	require.NoError(t, err)
	assert.Equal(t, Conversion{Seq: 42, Raw: 123}, got)
}

func TestParseConvert(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    uint32
		wantErr error
		anyErr  bool
	}{
		{name: "valid", line: "c,12", want: 12},
		{name: "valid with CRLF", line: "c,4294967295\r\n", want: 4294967295},
		{name: "bare", line: "c", wantErr: ErrNotMessage},
		{name: "output command", line: "o,1,2", wantErr: ErrNotMessage},
		{name: "non-numeric", line: "c,x", anyErr: true},
		{name: "overflow", line: "c,4294967296", anyErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConvert(tt.line)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.anyErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}

	seq, err := ParseConvert(string(AppendConvert(nil, 77)))
	require.NoError(t, err)
	assert.Equal(t, uint32(77), seq)
}

func TestAppendOutput(t *testing.T) {
	tests := []struct {
		name string
		out  Output
		want string
	}{
		{name: "mid", out: Output{Tier: 2, Permille: 500}, want: "o,2,500\n"},
		{name: "clamp high", out: Output{Tier: 3, Permille: 1200}, want: "o,3,1000\n"},
		{name: "clamp low", out: Output{Tier: 0, Permille: -5}, want: "o,0,0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(AppendOutput(nil, tt.out)))
		})
	}
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Output
		wantErr bool
	}{
		{name: "valid", line: "o,2,500", want: Output{Tier: 2, Permille: 500}},
		{name: "valid trailing newline", line: "o,1,250\n", want: Output{Tier: 1, Permille: 250}},
		{name: "missing value", line: "o,2", wantErr: true},
		{name: "too many values", line: "o,2,500,1", wantErr: true},
		{name: "bad tier", line: "o,x,500", wantErr: true},
		{name: "negative tier", line: "o,-1,500", wantErr: true},
		{name: "permille out of range", line: "o,1,1001", wantErr: true},
		{name: "not a command", line: "c,1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOutput(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
