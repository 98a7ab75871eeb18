// Package observability provides OpenTelemetry tracing and metrics for
// authkit.
//
// Every Engine operation runs inside an Operation: a span named after the
// operation (auth.register, auth.login, ...) plus an outcome counter and a
// duration histogram.
//
// Exporting:
//
//	providers, err := observability.Start(ctx, cfg)
//	defer providers.Shutdown(ctx)
//	engine := auth.NewEngine(store, strategy, auth.WithMetrics(providers.Metrics))
//
// Health checks:
//
//	health := observability.NewServiceHealth("authkit", version)
//	health.AddComponent(observability.CheckPing(ctx, "store", pinger))
package observability
