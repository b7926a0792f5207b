package utils

import (
	"fmt"
	"github.com/twmb/murmur3"
)

// RecoverWithError converts a panic into an error assigned to err, for use
// as a deferred guard at pipeline boundaries.
func RecoverWithError(err *error) {
	if rv := recover(); rv != nil {
		*err = fmt.Errorf("got panic: %v", rv)
	}
}

func HashString(s string) uint64 {
	hash := murmur3.New64()
	_, err := hash.Write([]byte(s))
	if err != nil {
		panic(err)
	}
	return hash.Sum64()
}
