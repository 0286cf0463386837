package mqtt

import (
	"context"
	"crypto/md5"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/mikesmitty/pwm-scpi/pkg/dutycycle"
	"github.com/mikesmitty/pwm-scpi/pkg/throttle"
)

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

type Client struct {
	client      paho.Client
	pub         publisher
	clientID    string
	topicPrefix string
	qos         byte
	retained    bool
	sampleRate  int
	hassSensors map[string]HassSensor
	mu          sync.Mutex
}

func NewClient(broker *url.URL, sampleRate int) *Client {
	var urls []*url.URL
	urls = append(urls, broker)

	hostname, _ := os.Hostname()
	hostname = strings.Split(hostname, ".")[0]
	clientID := hostname
	if clientID == "" {
		now := time.Now().UnixNano()
		sum := md5.Sum([]byte(strconv.FormatInt(now, 10)))
		clientID = fmt.Sprintf("pwm-scpi-%x", sum[:4])
	}

	slog.Info("connecting to mqtt", "url", broker, "clientid", clientID)
	client := paho.NewClient(&paho.ClientOptions{
		Servers:        urls,
		ClientID:       clientID,
		ConnectRetry:   true,
		ConnectTimeout: 30 * time.Second,
	})

	c := newClient(clientID, "pwm-scpi/"+clientID, sampleRate, client)
	c.client = client
	return c
}

func newClient(clientID, topicPrefix string, sampleRate int, pub publisher) *Client {
	if sampleRate < 1 {
		sampleRate = 1
	}
	return &Client{
		pub:         pub,
		clientID:    clientID,
		topicPrefix: topicPrefix,
		qos:         1,
		sampleRate:  sampleRate,
		hassSensors: make(map[string]HassSensor),
	}
}

func (c *Client) Connect() error {
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		slog.Error("mqtt connection failed", "error", token.Error())
		return token.Error()
	}
	return nil
}

func (c *Client) Disconnect() {
	if c.client != nil {
		c.client.Disconnect(250)
	}
}

func (c *Client) Subscribe(topic string, handler paho.MessageHandler) error {
	if token := c.client.Subscribe(topic, c.qos, handler); token.Wait() && token.Error() != nil {
		slog.Error("mqtt subscription failed", "error", token.Error())
		return token.Error()
	}
	return nil
}

// GetPublisher publishes controller state and duty statistics until both
// channels are closed or ctx is done. Controller state is sampled every
// sampleRate ticks; output enable changes are always published.
func (c *Client) GetPublisher(ctx context.Context, stateChan <-chan throttle.State, reportChan <-chan dutycycle.Report) func() error {
	dutySensor := c.RegisterHassSensor(c.NewHassSensor("Duty Cycle", HassSensorPercent))
	avgSensor := c.RegisterHassSensor(c.NewHassSensor("Duty Average", HassSensorPercent))
	appliedSensor := c.RegisterHassSensor(c.NewHassSensor("Applied Duty", HassSensorPercent))
	currentSensor := c.RegisterHassSensor(c.NewHassSensor("Current Setpoint", HassSensorCurrent))
	voltageSensor := c.RegisterHassSensor(c.NewHassSensor("Voltage Setpoint", HassSensorVoltage))
	queuedSensor := c.RegisterHassSensor(c.NewHassSensor("Queued Commands", HassSensorGeneric))
	droppedSensor := c.RegisterHassSensor(c.NewHassSensor("Dropped Commands", HassSensorGeneric))
	jitterSensor := c.RegisterHassSensor(c.NewHassSensor("Duty Jitter", HassSensorPercent))
	spreadSensor := c.RegisterHassSensor(c.NewHassSensor("Duty Spread", HassSensorPercent))
	meanSensor := c.RegisterHassSensor(c.NewHassSensor("Duty Mean", HassSensorPercent))
	trendSensor := c.RegisterHassSensor(c.NewHassSensor("Duty Trend", HassSensorGeneric))
	widthSensor := c.RegisterHassSensor(c.NewHassSensor("Pulse Width", HassSensorGeneric))
	periodSensor := c.RegisterHassSensor(c.NewHassSensor("Pulse Period", HassSensorGeneric))
	outputSensor := c.RegisterHassSensor(c.NewHassBinarySensor("Output Enabled", HassBinarySensorPower))

	stateSample := NewSample(c.sampleRate)

	return func() error {
		var output *bool
		done := ctx.Done()
		for stateChan != nil || reportChan != nil {
			select {
			case <-done:
				return nil
			case s, ok := <-stateChan:
				if !ok {
					stateChan = nil
					continue
				}
				if output == nil || *output != s.OutputEnabled {
					enabled := s.OutputEnabled
					output = &enabled
					c.HassPublishSensor(outputSensor, onOff(enabled))
				}
				if !stateSample.Ready() {
					continue
				}
				slog.Debug("mqtt publishing", "field", "state", "value", s)
				c.HassPublishSensor(dutySensor, strconv.Itoa(int(s.Duty)))
				c.HassPublishSensor(avgSensor, strconv.Itoa(int(s.Average)))
				c.HassPublishSensor(appliedSensor, strconv.Itoa(int(s.Applied)))
				c.HassPublishSensor(currentSensor, strconv.FormatFloat(s.Current, 'f', 2, 64))
				c.HassPublishSensor(voltageSensor, strconv.FormatFloat(s.Voltage, 'f', 2, 64))
				c.HassPublishSensor(queuedSensor, strconv.Itoa(s.Queued))
				c.HassPublishSensor(droppedSensor, strconv.Itoa(s.Dropped))
				c.HassPublishSensor(widthSensor, strconv.Itoa(int(s.PulseWidth)))
				c.HassPublishSensor(periodSensor, strconv.Itoa(int(s.PulsePeriod)))
			case r, ok := <-reportChan:
				if !ok {
					reportChan = nil
					continue
				}
				slog.Debug("mqtt publishing", "field", "duty report", "value", r)
				c.HassPublishSensor(jitterSensor, strconv.FormatFloat(r.Jitter, 'f', 2, 64))
				c.HassPublishSensor(spreadSensor, strconv.FormatFloat(r.Spread, 'f', 2, 64))
				c.HassPublishSensor(meanSensor, strconv.FormatFloat(r.Mean, 'f', 2, 64))
				c.HassPublishSensor(trendSensor, strconv.FormatFloat(r.Trend, 'f', 4, 64))
			}
		}
		return nil
	}
}

func (c *Client) Publish(topic string, msg string) {
	t := c.pub.Publish(topic, c.qos, c.retained, msg)
	go func() {
		_ = t.WaitTimeout(5 * time.Second)
		if t.Error() != nil {
			slog.Error("mqtt message publish failed", "error", t.Error(), "topic", topic)
		}
	}()
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
