// Package httpserver runs an http.Handler with sane timeouts and graceful
// shutdown on context cancellation or SIGINT/SIGTERM.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	router.Get("/health", httpserver.HealthCheckHandler(log, 2*time.Second, map[string]httpserver.Probe{
//		"postgres": pg.Healthcheck(pool),
//		"redis":    redis.Healthcheck(rdb),
//	}))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// Run joins listen failures with ErrStart and drain failures with
// ErrShutdown. The listener is bound before serving, so ":0" works and Addr
// reports the chosen port.
package httpserver
