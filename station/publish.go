package station

import (
	"fmt"

	"github.com/gr-butler/envnode/env"
	"github.com/gr-butler/envnode/sensors"
)

type Message struct {
	Topic   string
	Payload string
}

var topics = []struct {
	metric sensors.Metric
	topic  string
	format func(r sensors.Reading) string
}{
	{sensors.MetricRain, env.TopicRain, func(r sensors.Reading) string { return fmt.Sprintf("%d", r.Rain) }},
	{sensors.MetricTemperature, env.TopicTemperature, func(r sensors.Reading) string { return fmt.Sprintf("%.2f", r.Temperature.Float64()) }},
	{sensors.MetricHumidity, env.TopicHumidity, func(r sensors.Reading) string { return fmt.Sprintf("%.2f", r.Humidity.Float64()) }},
	{sensors.MetricPressure, env.TopicPressure, func(r sensors.Reading) string { return fmt.Sprintf("%.2f", r.Pressure.Float64()) }},
	{sensors.MetricIlluminance, env.TopicIlluminance, func(r sensors.Reading) string { return fmt.Sprintf("%.2f", r.Illuminance.Float64()) }},
}

// Messages formats each valid metric of r for its topic. Invalid metrics are
// left out.
func Messages(r sensors.Reading) []Message {
	msgs := make([]Message, 0, len(topics))
	for _, t := range topics {
		if !r.IsValid(t.metric) {
			continue
		}
		msgs = append(msgs, Message{Topic: t.topic, Payload: t.format(r)})
	}
	return msgs
}
