package worker

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"varspot.io/vsp/pipeline"
	"varspot.io/vsp/tasks"
	"varspot.io/vsp/utils"
)

// senderName is this worker's slot in the processing graph: its name in
// sequencer messages, the chunk status it owns, and the suffix of its results
// files.
const senderName = "vsp"

// Message is the envelope the sequencer exchanges with every worker in the
// processing graph.
type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

func (m Message) validate() error {
	if m.RedisKey == "" {
		return errors.New("message carries no redis key")
	}
	if m.WorkType != senderName {
		return fmt.Errorf("unexpected work type %q, this worker only tags mutation mentions", m.WorkType)
	}
	return nil
}

// mutationTask is one delivery's worth of work: the chunk record behind the
// message plus the mention count accumulated while tagging it.
type mutationTask struct {
	delivery     *amqp.Delivery
	chunkTask    *tasks.ChunkTask
	message      *Message
	redisKey     string
	mentionCount int
	vspLogger    *zerolog.Logger
}

func (worker *Worker) processDelivery(delivery *amqp.Delivery) {
	rejectLogger := worker.vspLogger.With().Str("message_id", delivery.MessageId).Logger()
	task, err := worker.createTask(delivery)
	if err != nil {
		worker.vspLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("body", string(delivery.Body)).
			Msg("Dropping delivery that cannot be turned into a task")
		worker.broker.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		worker.broker.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.pingSequencer(task); err != nil {
		task.vspLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.broker.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.broker.acknowledgeDelivery(delivery); err != nil {
		task.vspLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.vspLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*mutationTask, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if err := message.validate(); err != nil {
		return nil, err
	}
	chunkTask, err := worker.store.getChunkTask(message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk task for message: %w", err)
	}
	taskLogger := worker.vspLogger.With().Str("tid", message.RedisKey).Logger()
	return &mutationTask{
		delivery:  delivery,
		chunkTask: chunkTask,
		message:   &message,
		redisKey:  message.RedisKey,
		vspLogger: &taskLogger,
	}, nil
}

func (worker *Worker) processTask(task *mutationTask) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.vspLogger.Err(err).Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.store.onTaskStarted(task); err != nil {
		task.vspLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update task info: %w", err)
	}
	if err = worker.tagChunk(task); err != nil {
		task.vspLogger.Err(err).Msg("Chunk tagging failed")
		return worker.store.onTaskFailedWithError(task, err)
	}
	task.vspLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.store.onTaskComplete(task); err != nil {
		task.vspLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

// tagChunk fetches the chunk text, runs the mention pipeline over it and
// stores the serialized annotations. A configuration that reports an error
// inside its payload fails the whole chunk: a half-tagged results file must
// never look complete to the sequencer.
func (worker *Worker) tagChunk(task *mutationTask) (err error) {
	defer utils.RecoverWithError(&err)
	task.vspLogger.Info().Msgf("Tagging chunk, attempt # %d", task.chunkTask.TaskStatuses.VSP.Attempts)
	text, err := worker.objects.getChunkText(task.chunkTask.TextFileKey)
	if err != nil {
		task.vspLogger.Err(err).Caller().Msg("Could not fetch chunk text from s3")
		return fmt.Errorf("failed to fetch chunk text from s3: %w", err)
	}
	payload, ok := <-worker.ppln(pipeline.Request{
		Tid:  task.redisKey,
		Text: string(text),
	})
	if !ok {
		return errors.New("pipeline channel was closed before returning anything")
	}
	response, err := pipeline.DecodeResponse(payload)
	if err != nil {
		return fmt.Errorf("pipeline returned an unreadable payload: %w", err)
	}
	task.mentionCount = 0
	for cfgName, result := range response {
		if result.Error != "" {
			return fmt.Errorf("configuration %q failed: %s", cfgName, result.Error)
		}
		task.mentionCount += result.MentionCount()
	}
	task.vspLogger.Info().
		Int("mention_count", task.mentionCount).
		Msg("Finished tagging, saving results to s3")
	if err = worker.objects.saveResults(resultsFileKey(task.chunkTask.DocID, task.redisKey), payload); err != nil {
		task.vspLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

// pingSequencer reports the task outcome back on the sequencer queue. The
// original message comes back with this worker as the sender so the
// sequencer can tell which slot of the chunk status to look at.
func (worker *Worker) pingSequencer(task *mutationTask) error {
	update := *task.message
	update.Sender = senderName
	body, err := json.Marshal(update)
	if err != nil {
		return err
	}
	return worker.broker.publishTaskUpdate(body)
}

func (worker *Worker) shouldPerformTask(task *mutationTask) (bool, error) {
	taskInfo := task.chunkTask.TaskStatuses.VSP
	taskLogger := task.vspLogger

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	taskJob, err := worker.store.getJobTask(task.chunkTask.JobID)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for chunk task")
		return false, err
	}
	if taskJob.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		return false, worker.store.onTaskCancelled(task)
	}
	if taskJob.StopDocumentsOnFailure {
		docTask, err := worker.store.getDocTask(task.chunkTask.DocID)
		if err != nil {
			return false, err
		}
		if docTask == nil {
			return false, fmt.Errorf("document task not found")
		}
		if len(docTask.FailedTasks) > 0 {
			failedTask := docTask.FailedTasks[0]
			taskLogger.Info().Msgf("Skipping chunk: the %q worker already failed for this document "+
				"and the document won't complete. Sending back to Sequencer.", failedTask)
			return false, worker.store.onTaskCancelled(
				task,
				fmt.Sprintf(
					"Task was marked as %q because the current document has failed "+
						"in the %q worker and won't be processed successfully.",
					tasks.TaskStatusCanceled,
					failedTask,
				),
			)
		}
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Mutation task has exceeded retries. Sending back to Sequencer.")
		return false, worker.store.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
	}
	return true, nil
}
