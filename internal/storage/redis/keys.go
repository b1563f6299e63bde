package redis

import "fmt"

// Key prefix for all hangchat data
const keyPrefix = "hangchat"

// gameKey returns the Redis key for a finished game summary
func gameKey(id string) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// historyKey returns the Redis key for the LIST of game ids, newest first
func historyKey() string {
	return fmt.Sprintf("%s:idx:history", keyPrefix)
}
