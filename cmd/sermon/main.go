package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/serterm/pkg/bridge/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/serterm/"
)

func init() {
	if val := os.Getenv("SERTERM_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}

	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		switch {
		case strings.HasSuffix(topic, mqtt.TopicInvalid):
			log.Printf("%s: non-decodable %q", topic, payload)
		default:
			log.Printf("%s: %s", topic, string(payload))
		}
	}))
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
