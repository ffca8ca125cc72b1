package mqtt

import (
	"fmt"
	"log"
	"net/url"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Client wraps a paho client with connection retry and a simpler callback
// signature.
type Client struct {
	client paho.Client
}

// Will is a last-will message published by the broker if the connection is
// lost uncleanly.
type Will struct {
	Topic    string
	Payload  string
	QoS      byte
	Retained bool
}

// Config holds MQTT client configuration
type Config struct {
	ServerURL         string
	ClientID          string
	Username          string
	Password          string
	MaxRetries        int           // Maximum number of connection retries (0 = infinite)
	InitialRetryDelay time.Duration // Initial delay between retries
	MaxRetryDelay     time.Duration // Maximum delay between retries
	Will              *Will
	OnConnect         func(*Client) // Called on every (re)connect
}

// ValidateServerURL checks that serverURL is an mqtt:// URL.
func ValidateServerURL(serverURL string) error {
	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidServerURL, err)
	}

	if parsedURL.Scheme != "mqtt" || parsedURL.Host == "" {
		return fmt.Errorf("%w: %q: must use mqtt:// scheme", ErrInvalidServerURL, serverURL)
	}
	return nil
}

// NewClient creates a new MQTT client. The connection is established in the
// background and retried with exponential backoff; OnConnect runs once it
// succeeds and again after every automatic reconnect.
func NewClient(config Config) (*Client, error) {
	if err := ValidateServerURL(config.ServerURL); err != nil {
		return nil, err
	}

	initialDelay := config.InitialRetryDelay
	if initialDelay == 0 {
		initialDelay = time.Second
	}
	maxDelay := config.MaxRetryDelay
	if maxDelay == 0 {
		maxDelay = 30 * time.Second
	}

	c := &Client{}

	// paho wants tcp://; the mqtt:// scheme is only ours.
	brokerURL := "tcp" + config.ServerURL[len("mqtt"):]

	opts := paho.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(config.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	// Handlers publish replies and wait for the ack; that deadlocks if
	// messages must be handled in order on the network goroutine.
	opts.SetOrderMatters(false)
	opts.SetMaxReconnectInterval(maxDelay)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	if config.Will != nil {
		opts.SetWill(config.Will.Topic, config.Will.Payload, config.Will.QoS, config.Will.Retained)
	}
	opts.SetConnectionLostHandler(func(client paho.Client, err error) {
		log.Printf("mqtt connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(client paho.Client) {
		log.Printf("connected to mqtt broker at %s", config.ServerURL)
		if config.OnConnect != nil {
			config.OnConnect(c)
		}
	})

	c.client = paho.NewClient(opts)

	go func() {
		delay := initialDelay
		attempt := 0
		for {
			token := c.client.Connect()
			if token.Wait() && token.Error() == nil {
				return
			}

			attempt++
			if config.MaxRetries > 0 && attempt >= config.MaxRetries {
				log.Printf("failed to connect to mqtt broker after %d attempts, giving up: %v", attempt, token.Error())
				return
			}

			log.Printf("failed to connect to mqtt broker (attempt %d): %v; retrying in %v", attempt, token.Error(), delay)
			time.Sleep(delay)

			delay = delay * 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}()

	return c, nil
}

// PublishTimeout bounds how long Publish waits for the broker, including
// while paho is reconnecting.
const PublishTimeout = 5 * time.Second

// Publish publishes a message to the specified topic
func (c *Client) Publish(topic string, qos byte, retained bool, payload interface{}) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(PublishTimeout) {
		return fmt.Errorf("%w %s: %v", ErrPublish, topic, ErrTimeout)
	}
	if token.Error() != nil {
		return fmt.Errorf("%w %s: %v", ErrPublish, topic, token.Error())
	}

	return nil
}

// Subscribe subscribes to a topic with the given message handler
func (c *Client) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	wrappedHandler := func(client paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	}

	if token := c.client.Subscribe(topic, qos, wrappedHandler); token.Wait() && token.Error() != nil {
		return fmt.Errorf("%w %s: %v", ErrSubscribe, topic, token.Error())
	}

	return nil
}

// IsConnected returns true if the client is connected to the MQTT broker
func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Disconnect disconnects from the MQTT broker, waiting up to quiesce
// milliseconds for pending work.
func (c *Client) Disconnect(quiesce uint) {
	if c.IsConnected() {
		c.client.Disconnect(quiesce)
		log.Printf("disconnected from mqtt broker")
	}
}
