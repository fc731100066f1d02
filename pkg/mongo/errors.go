package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("failed to connect to mongo")
	ErrInvalidURL             = errors.New("invalid mongo connection url")
	ErrNoDatabase             = errors.New("mongo connection url has no database")
	ErrNotConnected           = errors.New("mongo client is not connected")
)
