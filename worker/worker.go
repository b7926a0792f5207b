package worker

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"varspot.io/vsp/logger"
	"varspot.io/vsp/pipeline"
	"varspot.io/vsp/rmq"
	"varspot.io/vsp/s3client"
	"varspot.io/vsp/tasks"
)

type Config struct {
	TaskMaxRetries int `envconfig:"VSP_COMN_RETRY_TASK_COUNT_MAX" default:"3"`
}

// Worker drains the mutation task queue: every delivery names a chunk of
// document text whose mentions get tagged and the resulting annotations
// stored back to S3.
type Worker struct {
	config    Config
	store     chunkStatusStore
	objects   objectStore
	broker    taskBroker
	vspLogger *zerolog.Logger
	ppln      pipeline.Pipeline
}

func New(ppln pipeline.Pipeline) (*Worker, error) {
	vspLogger := logger.NewLogger("Worker")

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		vspLogger.Error().Err(err).Msg("Could not read config")
		return nil, err
	}

	worker := Worker{
		config:    config,
		vspLogger: &vspLogger,
		ppln:      ppln,
	}
	if err := worker.refreshBroker(); err != nil {
		vspLogger.Error().Err(err).Msg("Could not create RMQ client")
		return nil, err
	}
	s3Client, err := s3client.New()
	if err != nil {
		vspLogger.Error().Err(err).Msg("Could not create S3 client")
		return nil, err
	}
	worker.objects = &resultsStore{s3Client}
	if err := worker.refreshStore(); err != nil {
		vspLogger.Error().Err(err).Msg("Could not create Redis client")
		return nil, err
	}
	return &worker, nil
}

// Run consumes deliveries until the broker connection dies and cannot be
// rebuilt. A nil error never comes back; the caller decides whether to
// relaunch.
func (worker *Worker) Run() error {
	defer worker.Close()
	for {
		select {
		case delivery, ok := <-worker.broker.deliveries():
			if ok {
				go worker.processDelivery(&delivery)
				continue
			}
			worker.vspLogger.Error().Msg("Deliveries channel closed, trying to refresh RMQ client")
			if err := worker.refreshBroker(); err != nil {
				return fmt.Errorf("deliveries channel closed and refresh failed: %w", err)
			}
		case rmqErr := <-worker.broker.connectionErrors():
			if rmqErr == nil {
				continue
			}
			worker.vspLogger.Err(rmqErr).Msg("RMQ connection received error, trying to refresh client")
			if err := worker.refreshBroker(); err != nil {
				return fmt.Errorf("rmq connection error and refresh failed: %w", err)
			}
		}
	}
}

func (worker *Worker) Close() {
	if worker.store != nil {
		worker.store.close()
	}
	if worker.broker != nil {
		worker.broker.close()
	}
}

func (worker *Worker) refreshStore() error {
	worker.vspLogger.Info().Msg("Refreshing Redis client")
	if oldStore := worker.store; oldStore != nil {
		defer oldStore.close()
	}
	tasksClient, err := tasks.NewClient()
	if err != nil {
		worker.vspLogger.Err(err).Msg("Failed to refresh Redis client")
		return err
	}
	worker.store = &taskStore{&tasksClient}
	worker.vspLogger.Info().Msg("Refreshed Redis client")
	return nil
}

func (worker *Worker) refreshBroker() error {
	worker.vspLogger.Info().Msg("Refreshing RMQ client")
	if oldBroker := worker.broker; oldBroker != nil {
		defer oldBroker.close()
	}
	rmqClient, err := rmq.NewClient()
	if err != nil {
		worker.vspLogger.Err(err).Msg("Failed to refresh RMQ client")
		return err
	}
	worker.broker = &brokerWrapper{rmqClient}
	worker.vspLogger.Info().Msg("Refreshed RMQ client")
	return nil
}
