package worker

import (
	"fmt"
	"path"

	"varspot.io/vsp/s3client"
)

type objectStore interface {
	getChunkText(key string) ([]byte, error)
	saveResults(key string, payload string) error
}

// resultsStore keeps chunk text and tagged results side by side under the
// document's chunk prefix.
type resultsStore struct {
	s3Client *s3client.Client
}

func (store *resultsStore) getChunkText(key string) ([]byte, error) {
	return store.s3Client.Download(key)
}

func (store *resultsStore) saveResults(key string, payload string) error {
	return store.s3Client.Upload(key, []byte(payload), "application/json")
}

func resultsFileKey(docID string, redisKey string) string {
	return path.Join(
		"processed",
		"documents",
		docID,
		"chunks",
		redisKey,
		fmt.Sprintf("%s.%s_results.json", redisKey, senderName),
	)
}
