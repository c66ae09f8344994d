package report

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for name, expected := range map[string]Format{"": FormatJSON, "json": FormatJSON, "proto": FormatProto, "pb": FormatProto} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		require.Equal(t, expected, f)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestStruct(t *testing.T) {
	r := sampleReport()
	s := Struct(r, "bench", false)
	require.Equal(t, "run-1", s.Fields["run_id"].GetStringValue())
	require.Equal(t, "bench", s.Fields["source"].GetStringValue())
	require.Equal(t, float64(1500), s.Fields["pwm"].GetNumberValue())
	require.Equal(t, "2026-01-02T03:04:05Z", s.Fields["started"].GetStringValue())
	require.InDelta(t, 0.2, s.Fields["rms"].GetStructValue().Fields["z"].GetNumberValue(), 1e-9)
	require.Equal(t, float64(2), s.Fields["rate"].GetNumberValue())
	require.NotContains(t, s.Fields, "samples")

	s = Struct(r, "bench", true)
	x := s.Fields["samples"].GetStructValue().Fields["x"].GetListValue().Values
	require.Len(t, x, 4)
	require.Equal(t, 0.1, x[0].GetNumberValue())
}

func TestEncodeDecode(t *testing.T) {
	s := Struct(sampleReport(), "bench", true)
	for _, format := range []Format{FormatJSON, FormatProto} {
		data, err := Encode(s, format)
		require.NoError(t, err)
		decoded, err := Decode(data, format)
		require.NoError(t, err)
		require.Equal(t, "run-1", decoded.Fields["run_id"].GetStringValue())
		require.Equal(t, float64(4), decoded.Fields["sample_count"].GetNumberValue())
	}
	data, err := Encode(s, FormatJSON)
	require.NoError(t, err)
	require.Contains(t, string(data), `"run_id":"run-1"`)
}
