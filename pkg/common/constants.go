package common

import "fmt"

// Redis key layouts shared between the scheduler and the alert pipeline.
const (
	redisKeyJobLease  = "job_lease:%s"
	redisKeyLastPrice = "last_price:%s"
)

// JobLeaseKey returns the Redis key guarding a job name's execution lease.
func JobLeaseKey(jobName string) string {
	return fmt.Sprintf(redisKeyJobLease, jobName)
}

// LastPriceKey returns the Redis key caching the latest quote for a symbol.
func LastPriceKey(symbol string) string {
	return fmt.Sprintf(redisKeyLastPrice, symbol)
}
