package main

import (
	"flag"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/robotalks/fclink/pkg/l0/comm"
	"github.com/robotalks/fclink/pkg/telemetry"
	"github.com/robotalks/fclink/pkg/transport/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/fclink/"
	device  = "+"
)

func init() {
	if val := os.Getenv("FCLINK_URL"); strings.HasPrefix(val, "mqtt") {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	flag.StringVar(&device, "device", device, "Device to monitor, + for all.")
}

// streams keeps one decoder per topic as frames may span messages.
type streams struct {
	lock     sync.Mutex
	decoders map[string]*comm.Decoder
}

func (s *streams) feed(topic string, payload []byte) {
	s.lock.Lock()
	defer s.lock.Unlock()
	d := s.decoders[topic]
	if d == nil {
		d = &comm.Decoder{}
		s.decoders[topic] = d
	}
	d.Feed(payload, func(pr comm.ParseResult) {
		if pr.Err != nil {
			log.Printf("%s: %v", topic, pr.Err)
		}
		if pr.Frame != nil {
			log.Printf("%s: %s", topic, telemetry.Describe(pr.Frame))
		}
	})
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}

	s := &streams{decoders: make(map[string]*comm.Decoder)}
	q.Sub(mqtt.DeviceTopic(device, mqtt.TopicTX), s.feed)
	q.Sub(mqtt.DeviceTopic(device, mqtt.TopicRX), s.feed)
	<-(chan struct{})(nil)
}
