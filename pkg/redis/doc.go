// Package redis opens the go-redis client used by the shared tenant
// descriptor cache (see tenant.NewRedisCache).
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
package redis
