package tasks

import (
	"varspot.io/vsp/redis"
)

const JobsDB redis.DB = 1

// JobTask carries the two job-level switches a worker must honor before
// touching a chunk.
type JobTask struct {
	UserCanceled           bool `json:"user_canceled"`
	StopDocumentsOnFailure bool `json:"stop_documents_on_failure"`
}

type JobTasks struct {
	client redis.Client
}

// GetCached reads the job's cached-properties mirror; workers never hold the
// lock on the job record itself.
func (tasks JobTasks) GetCached(redisKey string) (*JobTask, error) {
	var task JobTask
	err := tasks.client.GetRecord(cachedPropertiesKey(redisKey), &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
