package worker

import (
	"errors"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"varspot.io/vsp/pipeline"
	"varspot.io/vsp/tasks"
)

// storeMock implements chunkStatusStore. It records the order of lifecycle
// calls and captures the values the worker hands over so tests can assert
// what would have landed in redis.
type storeMock struct {
	chunkTask tasks.ChunkTask
	jobTask   tasks.JobTask
	docTask   tasks.DocumentTaskCached
	failOn    map[string]bool

	calls             []string
	cancelReasons     []string
	failureMessages   []string
	completedMentions int
	completedFileKey  string
}

func (m *storeMock) record(name string) error {
	m.calls = append(m.calls, name)
	if m.failOn[name] {
		return errors.New(name + " failed")
	}
	return nil
}

func (m *storeMock) close() {}

func (m *storeMock) getChunkTask(redisKey string) (*tasks.ChunkTask, error) {
	if err := m.record("getChunkTask"); err != nil {
		return nil, err
	}
	task := m.chunkTask
	return &task, nil
}

func (m *storeMock) getJobTask(jobID string) (*tasks.JobTask, error) {
	if err := m.record("getJobTask"); err != nil {
		return nil, err
	}
	jobTask := m.jobTask
	return &jobTask, nil
}

func (m *storeMock) getDocTask(docID string) (*tasks.DocumentTaskCached, error) {
	if err := m.record("getDocTask"); err != nil {
		return nil, err
	}
	docTask := m.docTask
	return &docTask, nil
}

func (m *storeMock) onTaskStarted(task *mutationTask) error {
	return m.record("onTaskStarted")
}

func (m *storeMock) onTaskCancelled(task *mutationTask, reasons ...string) error {
	m.cancelReasons = append(m.cancelReasons, reasons...)
	return m.record("onTaskCancelled")
}

func (m *storeMock) onTaskExceededRetries(task *mutationTask, maxRetries int) error {
	return m.record("onTaskExceededRetries")
}

func (m *storeMock) onTaskFailedWithError(task *mutationTask, cause error) error {
	m.failureMessages = append(m.failureMessages, cause.Error())
	return m.record("onTaskFailedWithError")
}

func (m *storeMock) onTaskComplete(task *mutationTask) error {
	m.completedMentions = task.mentionCount
	m.completedFileKey = resultsFileKey(task.chunkTask.DocID, task.redisKey)
	return m.record("onTaskComplete")
}

// brokerMock implements taskBroker, capturing published sequencer updates.
type brokerMock struct {
	failPublish bool
	failAck     bool

	published [][]byte
	acked     bool
	rejected  bool
}

func (m *brokerMock) close() {}

func (m *brokerMock) deliveries() <-chan amqp.Delivery {
	return nil
}

func (m *brokerMock) connectionErrors() <-chan *amqp.Error {
	return nil
}

func (m *brokerMock) publishTaskUpdate(body []byte) error {
	m.published = append(m.published, body)
	if m.failPublish {
		return errors.New("publish failed")
	}
	return nil
}

func (m *brokerMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	m.acked = true
	if m.failAck {
		return errors.New("ack failed")
	}
	return nil
}

func (m *brokerMock) rejectDelivery(delivery *amqp.Delivery, vspLogger *zerolog.Logger) {
	m.rejected = true
}

// objectsMock implements objectStore, capturing the keys and the results
// payload the worker would have written to S3.
type objectsMock struct {
	chunkText   string
	failGetText bool
	failSave    bool

	fetchedKey   string
	savedKey     string
	savedPayload string
}

func (m *objectsMock) getChunkText(key string) ([]byte, error) {
	m.fetchedKey = key
	if m.failGetText {
		return nil, errors.New("download failed")
	}
	return []byte(m.chunkText), nil
}

func (m *objectsMock) saveResults(key string, payload string) error {
	m.savedKey = key
	m.savedPayload = payload
	if m.failSave {
		return errors.New("upload failed")
	}
	return nil
}

// pipelineStub sends the given payload once. With closed set the channel
// closes without sending, like a pipeline that died mid-flight.
func pipelineStub(payload string, closed bool) pipeline.Pipeline {
	return func(request pipeline.Request) <-chan string {
		ch := make(chan string, 1)
		if !closed {
			ch <- payload
		}
		close(ch)
		return ch
	}
}
