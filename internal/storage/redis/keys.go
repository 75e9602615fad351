package redis

import "fmt"

// Key prefix for all session data
const keyPrefix = "proplatform"

// slotKey returns the Redis key for a credential slot
func slotKey(slot string) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, slot)
}
