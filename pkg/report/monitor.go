package report

import (
	"bytes"
	"fmt"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
	structpb "github.com/golang/protobuf/ptypes/struct"
)

// MatchTopic matches topic with pattern.
func MatchTopic(topic, pattern string) bool {
	tokensT, tokensP := strings.Split(topic, "/"), strings.Split(pattern, "/")
	if len(tokensP) > len(tokensT) {
		return false
	}
	if len(tokensP) < len(tokensT) && tokensP[len(tokensP)-1] != "#" {
		return false
	}
	for i, token := range tokensP {
		if token == "+" {
			continue
		}
		if token == "#" && i+1 == len(tokensP) {
			break
		}
		if token != tokensT[i] {
			return false
		}
	}
	return true
}

// Handler is called with each received report.
type Handler func(source string, report *structpb.Struct)

// Monitor receives the reports published by every bench.
type Monitor struct {
	TopicPrefix string
	Handler     Handler
}

// Pattern is the subscribed topic filter.
func (m *Monitor) Pattern() string {
	return m.TopicPrefix + "vibration/+/report"
}

// Dispatch decodes a received message and calls the Handler. Messages
// not matching Pattern are ignored. JSON and protobuf payloads are both
// accepted.
func (m *Monitor) Dispatch(topic string, payload []byte) error {
	if !MatchTopic(topic, m.Pattern()) {
		return nil
	}
	tokens := strings.Split(strings.TrimPrefix(topic, m.TopicPrefix), "/")
	format := FormatProto
	if bytes.HasPrefix(bytes.TrimSpace(payload), []byte("{")) {
		format = FormatJSON
	}
	s, err := Decode(payload, format)
	if err != nil {
		return fmt.Errorf("%s: %w", topic, err)
	}
	if m.Handler != nil {
		m.Handler(tokens[1], s)
	}
	return nil
}

// Subscribe subscribes Pattern, call it again after reconnecting.
func (m *Monitor) Subscribe(client paho.Client) paho.Token {
	glog.V(2).Infof("SUB %q", m.Pattern())
	return client.Subscribe(m.Pattern(), 1, func(_ paho.Client, msg paho.Message) {
		if err := m.Dispatch(msg.Topic(), msg.Payload()); err != nil {
			glog.Warningf("bad report: %v", err)
		}
	})
}

// Summary formats the key values of a report Struct in one line.
func Summary(s *structpb.Struct) string {
	num := func(name string) float64 {
		return s.Fields[name].GetNumberValue()
	}
	axis := func(name, field string) float64 {
		return s.Fields[name].GetStructValue().GetFields()[field].GetNumberValue()
	}
	return fmt.Sprintf("run %s motor %d pwm %d: rms(total)=%.2f rms(x,y,z)=%.2f %.2f %.2f samples=%d",
		s.Fields["run_id"].GetStringValue(),
		int(num("motor")), int(num("pwm")),
		num("rms_combined"),
		axis("rms", "x"), axis("rms", "y"), axis("rms", "z"),
		int(num("sample_count")))
}
