package rmq

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"varspot.io/vsp/logger"
)

type Config struct {
	Host                    string `envconfig:"VSP_COMN_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"VSP_COMN_RMQ_PORT" required:"true"`
	Username                string `envconfig:"VSP_COMN_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"VSP_COMN_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"VSP_COMN_RMQ_DEFAULT_EXCHANGE" default:"varspot-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"VSP_MQ_MAX_PARALLEL_REQUESTS" default:"5"`
	VSPTaskQueue            string `envconfig:"VSP_COMN_VSP_TASK_QUEUE" required:"true"`
	SequencerTaskQueue      string `envconfig:"VSP_COMN_SEQUENCER_TASK_QUEUE" required:"true"`
}

// connection couples an AMQP connection with its single channel and the
// channel's close notifications.
type connection struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	errors  <-chan *amqp.Error
}

func dial(url string) (*connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &connection{
		conn:    conn,
		channel: channel,
		errors:  channel.NotifyClose(make(chan *amqp.Error)),
	}, nil
}

func (conn *connection) close() {
	_ = conn.conn.Close()
}

// Client consumes mutation task messages and publishes task updates back to
// the sequencer. Consuming and publishing run on separate connections so a
// poisoned consumer channel cannot take the publisher down with it.
// ConnectionErrors merges the close notifications of both; any error on it
// means the client must be rebuilt.
type Client struct {
	Deliveries       <-chan amqp.Delivery
	ConnectionErrors <-chan *amqp.Error
	config           Config
	consumer         *connection
	publisher        *connection
	vspLogger        *zerolog.Logger
}

func NewClient() (*Client, error) {
	vspLogger := logger.NewLogger("RMQ client")
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		vspLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	url := fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
	consumer, err := dial(url)
	if err != nil {
		return nil, fmt.Errorf("consumer connection: %w", err)
	}
	publisher, err := dial(url)
	if err != nil {
		consumer.close()
		return nil, fmt.Errorf("publisher connection: %w", err)
	}

	deliveries, err := startConsuming(consumer.channel, config)
	if err != nil {
		consumer.close()
		publisher.close()
		return nil, err
	}

	return &Client{
		Deliveries:       deliveries,
		ConnectionErrors: mergeErrors(consumer.errors, publisher.errors),
		config:           config,
		consumer:         consumer,
		publisher:        publisher,
		vspLogger:        &vspLogger,
	}, nil
}

// startConsuming binds the mutation task queue and opens a consumer on it.
// The queue must already exist; the worker owns neither its creation nor its
// deletion.
func startConsuming(channel *amqp.Channel, config Config) (<-chan amqp.Delivery, error) {
	q, err := channel.QueueDeclarePassive(config.VSPTaskQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("task queue %q not found: %w", config.VSPTaskQueue, err)
	}
	if err := channel.QueueBind(q.Name, q.Name, config.Exchange, false, nil); err != nil {
		return nil, fmt.Errorf("bind task queue: %w", err)
	}
	if err := channel.Qos(config.MaxParallelRequestCount, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}
	deliveries, err := channel.Consume(q.Name, "vsp-worker", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}
	return deliveries, nil
}

// PublishTaskUpdate routes a task status message to the sequencer queue.
func (c *Client) PublishTaskUpdate(body []byte) error {
	return c.publisher.channel.Publish(
		c.config.Exchange,
		c.config.SequencerTaskQueue,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
}

func (c *Client) Close() {
	c.consumer.close()
	c.publisher.close()
}

func mergeErrors(channels ...<-chan *amqp.Error) <-chan *amqp.Error {
	merged := make(chan *amqp.Error)
	for _, ch := range channels {
		go func(ch <-chan *amqp.Error) {
			for err := range ch {
				merged <- err
			}
		}(ch)
	}
	return merged
}
