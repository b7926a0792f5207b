package tasks

import (
	"fmt"

	"varspot.io/vsp/redis"
)

// Client groups the three task record stores. Documents, jobs and chunks
// live in separate redis databases, so each store carries its own
// connection.
type Client struct {
	Documents DocumentTasks
	Chunks    ChunkTasks
	Jobs      JobTasks
}

func NewClient() (Client, error) {
	var client Client
	docRedisClient, err := redis.NewClient(DocumentsDB)
	if err != nil {
		return client, fmt.Errorf("documents store: %w", err)
	}
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		return client, fmt.Errorf("jobs store: %w", err)
	}
	chunksRedisClient, err := redis.NewClient(ChunksDB)
	if err != nil {
		return client, fmt.Errorf("chunks store: %w", err)
	}
	client.Documents = DocumentTasks{client: docRedisClient}
	client.Jobs = JobTasks{client: jobsRedisClient}
	client.Chunks = ChunkTasks{client: chunksRedisClient}
	return client, nil
}

func (client *Client) Close() {
	_ = client.Chunks.client.Close()
	_ = client.Documents.client.Close()
	_ = client.Jobs.client.Close()
}

// cachedPropertiesKey names the read-mostly mirror of a task record. The
// sequencer maintains the mirror; workers only ever read it.
func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
