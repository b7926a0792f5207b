package worker

import (
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"varspot.io/vsp/rmq"
)

type taskBroker interface {
	publishTaskUpdate(body []byte) error
	acknowledgeDelivery(delivery *amqp.Delivery) error
	rejectDelivery(delivery *amqp.Delivery, vspLogger *zerolog.Logger)
	deliveries() <-chan amqp.Delivery
	connectionErrors() <-chan *amqp.Error
	close()
}

type brokerWrapper struct {
	rmqClient *rmq.Client
}

func (broker *brokerWrapper) close() {
	broker.rmqClient.Close()
}

func (broker *brokerWrapper) deliveries() <-chan amqp.Delivery {
	return broker.rmqClient.Deliveries
}

func (broker *brokerWrapper) connectionErrors() <-chan *amqp.Error {
	return broker.rmqClient.ConnectionErrors
}

func (broker *brokerWrapper) publishTaskUpdate(body []byte) error {
	return broker.rmqClient.PublishTaskUpdate(body)
}

func (broker *brokerWrapper) acknowledgeDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

// rejectDelivery gives a message one requeue before dropping it for good.
func (broker *brokerWrapper) rejectDelivery(delivery *amqp.Delivery, vspLogger *zerolog.Logger) {
	if delivery.Redelivered {
		vspLogger.Info().Msg("Rejecting delivery as it already has been redelivered")
		if err := delivery.Reject(false); err != nil {
			vspLogger.Err(err).Msg("Failed to reject delivery")
		}
		return
	}
	vspLogger.Info().Msg("Requeuing delivery as it has not been redelivered yet")
	if err := delivery.Reject(true); err != nil {
		vspLogger.Err(err).Msg("Failed to requeue delivery")
	}
}
