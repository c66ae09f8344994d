package report

import (
	"fmt"
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/msp.go/pkg/imu"
	"github.com/robotalks/msp.go/pkg/vibration"
)

// Format is the encoding of published reports.
type Format int

// Formats
const (
	FormatJSON Format = iota
	FormatProto
)

// ParseFormat parses the name of a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "", "json":
		return FormatJSON, nil
	case "proto", "pb":
		return FormatProto, nil
	default:
		return FormatJSON, fmt.Errorf("unknown report format %q", name)
	}
}

// Struct converts r into a protobuf Struct. Samples are included only if
// withSamples is set.
func Struct(r *vibration.Report, source string, withSamples bool) *structpb.Struct {
	s := &structpb.Struct{Fields: map[string]*structpb.Value{
		"run_id":       stringValue(r.RunID),
		"source":       stringValue(source),
		"motor":        numberValue(float64(r.Motor)),
		"pwm":          numberValue(float64(r.PWM)),
		"duration":     numberValue(r.Duration.Seconds()),
		"started":      stringValue(r.Started.UTC().Format(time.RFC3339Nano)),
		"mean":         sampleValue(r.Mean),
		"rms":          sampleValue(r.RMS),
		"rms_combined": numberValue(r.RMSCombined),
		"sample_count": numberValue(float64(r.SampleCount)),
		"elapsed":      numberValue(r.Elapsed.Seconds()),
		"rate":         numberValue(r.Rate()),
	}}
	if withSamples && r.Samples != nil {
		s.Fields["samples"] = &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: &structpb.Struct{
			Fields: map[string]*structpb.Value{
				"x": listValue(r.Samples.X()),
				"y": listValue(r.Samples.Y()),
				"z": listValue(r.Samples.Z()),
			},
		}}}
	}
	return s
}

// Encode encodes the report Struct in format.
func Encode(s *structpb.Struct, format Format) ([]byte, error) {
	switch format {
	case FormatProto:
		return proto.Marshal(s)
	default:
		str, err := (&jsonpb.Marshaler{}).MarshalToString(s)
		if err != nil {
			return nil, err
		}
		return []byte(str), nil
	}
}

// Decode decodes an encoded report Struct.
func Decode(data []byte, format Format) (*structpb.Struct, error) {
	s := &structpb.Struct{}
	var err error
	switch format {
	case FormatProto:
		err = proto.Unmarshal(data, s)
	default:
		err = jsonpb.UnmarshalString(string(data), s)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func sampleValue(s imu.Sample) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"x": numberValue(s.X),
			"y": numberValue(s.Y),
			"z": numberValue(s.Z),
		},
	}}}
}

func listValue(values []float64) *structpb.Value {
	list := &structpb.ListValue{Values: make([]*structpb.Value, len(values))}
	for i, v := range values {
		list.Values[i] = numberValue(v)
	}
	return &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: list}}
}
