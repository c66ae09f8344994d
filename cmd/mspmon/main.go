package main

import (
	"flag"
	"log"
	"os"

	paho "github.com/eclipse/paho.mqtt.golang"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/msp.go/pkg/report"
)

var (
	mqttURL = "mqtt://localhost:1883/"
)

func init() {
	if val := os.Getenv("MSP_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	opts, topicPrefix, err := report.ClientOptionsFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	mon := &report.Monitor{
		TopicPrefix: topicPrefix,
		Handler: func(source string, s *structpb.Struct) {
			log.Printf("%s: %s", source, report.Summary(s))
		},
	}
	opts.SetOnConnectHandler(func(c paho.Client) {
		log.Printf("connected, watching %s", mon.Pattern())
		mon.Subscribe(c)
	})
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		log.Printf("connection lost: %v", err)
	})
	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
