// Package redis connects to Redis with go-redis and exposes a health probe.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	sessions := session.NewRedisStore(client, "session:")
//	probes["redis"] = redis.Healthcheck(client)
//
// Failures are reported as sentinel errors joined with the driver error.
package redis
