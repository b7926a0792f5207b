package worker

import (
	"fmt"
	"time"

	"varspot.io/vsp/tasks"
)

type chunkStatusStore interface {
	getChunkTask(redisKey string) (*tasks.ChunkTask, error)
	getJobTask(jobID string) (*tasks.JobTask, error)
	getDocTask(docID string) (*tasks.DocumentTaskCached, error)
	onTaskStarted(task *mutationTask) error
	onTaskCancelled(task *mutationTask, reasons ...string) error
	onTaskExceededRetries(task *mutationTask, maxRetries int) error
	onTaskFailedWithError(task *mutationTask, cause error) error
	onTaskComplete(task *mutationTask) error
	close()
}

// taskStore maps task lifecycle events onto the "vsp" slot of the chunk
// status record.
type taskStore struct {
	tasksClient *tasks.Client
}

func (store *taskStore) close() {
	store.tasksClient.Close()
}

func (store *taskStore) updateStatus(redisKey string, mutate func(info *tasks.ChunkTaskInfo)) error {
	return store.tasksClient.Chunks.Update(redisKey, func(chunkTask *tasks.ChunkTask) {
		mutate(&chunkTask.TaskStatuses.VSP)
	})
}

func (store *taskStore) onTaskStarted(task *mutationTask) error {
	return store.updateStatus(task.redisKey, func(info *tasks.ChunkTaskInfo) {
		info.Status = tasks.TaskStatusStarted
		info.Attempts += 1
		info.StartedAt = timestampNow()
		info.CompletedAt = nil
	})
}

func (store *taskStore) onTaskCancelled(task *mutationTask, reasons ...string) error {
	return store.updateStatus(task.redisKey, func(info *tasks.ChunkTaskInfo) {
		info.Status = tasks.TaskStatusCanceled
		info.StartedAt = timestampNow()
		info.CompletedAt = timestampNow()
		info.Attempts += 1
		info.ErrorMessages = append(info.ErrorMessages, reasons...)
	})
}

// onTaskExceededRetries settles the chunk as a failure and records this
// worker on the document's failed task lists so sibling chunks can be
// stopped.
func (store *taskStore) onTaskExceededRetries(task *mutationTask, maxRetries int) error {
	err := store.tasksClient.Documents.Update(task.chunkTask.DocID, func(docTask *tasks.DocumentTask) {
		docTask.FailedTasks = append(docTask.FailedTasks, senderName)
		if docTask.FailedChunks == nil {
			docTask.FailedChunks = map[string][]string{}
		}
		docTask.FailedChunks[task.redisKey] = append(docTask.FailedChunks[task.redisKey], senderName)
	})
	if err != nil {
		return err
	}
	return store.updateStatus(task.redisKey, func(info *tasks.ChunkTaskInfo) {
		info.Status = tasks.TaskStatusCompletedFailure
		info.StartedAt = timestampNow()
		info.CompletedAt = timestampNow()
		info.Attempts += 1
		info.ErrorMessages = append(
			info.ErrorMessages,
			fmt.Sprintf(
				"Task has exceeded retries. (Attempts: %d, max retries: %d )",
				info.Attempts,
				maxRetries,
			),
		)
	})
}

func (store *taskStore) onTaskFailedWithError(task *mutationTask, cause error) error {
	return store.updateStatus(task.redisKey, func(info *tasks.ChunkTaskInfo) {
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = timestampNow()
		info.ErrorMessages = append(info.ErrorMessages, cause.Error())
	})
}

func (store *taskStore) onTaskComplete(task *mutationTask) error {
	return store.updateStatus(task.redisKey, func(info *tasks.ChunkTaskInfo) {
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = timestampNow()
		info.MentionCount = task.mentionCount
		info.ResultsFileKey = resultsFileKey(task.chunkTask.DocID, task.redisKey)
	})
}

func (store *taskStore) getChunkTask(redisKey string) (*tasks.ChunkTask, error) {
	return store.tasksClient.Chunks.Get(redisKey)
}

func (store *taskStore) getJobTask(jobID string) (*tasks.JobTask, error) {
	return store.tasksClient.Jobs.GetCached(jobID)
}

func (store *taskStore) getDocTask(docID string) (*tasks.DocumentTaskCached, error) {
	return store.tasksClient.Documents.GetCached(docID)
}

const rfc3339Micro = "2006-01-02T15:04:05.000000-07:00"

func timestampNow() *string {
	now := time.Now().UTC().Format(rfc3339Micro)
	return &now
}
