package redis

import "errors"

var (
	ErrEmptyConnectionURL           = errors.New("redis cache is disabled: empty REDIS_URL")
	ErrFailedToParseRedisConnString = errors.New("failed to parse redis connection string")
	// ErrRedisNotReady means every PING within ConnectTimeout failed.
	ErrRedisNotReady = errors.New("redis did not become ready within the connect timeout")
)
