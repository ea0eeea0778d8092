package cache

import "fmt"

// Namespace is the base prefix isolating this service's keys in Redis.
const Namespace = "graphreq"

// approvalKey builds the cache key for one (request, permission) pair.
func approvalKey(requestID, permission string) string {
	return fmt.Sprintf("%s:approvals:%s:%s", Namespace, requestID, permission)
}
