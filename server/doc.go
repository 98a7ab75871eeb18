// Package server hosts authkit routes on gin with h2c support.
//
//	srv := server.New(cfg.Server, log)
//	srv.ApplyMiddleware(metrics)
//	srv.RegisterDefaultEndpoints("authkit", checker)
//	srv.RegisterAuthRoutes(engine)
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//	defer srv.Stop(context.Background())
//
// Middleware lives in server/middleware and route handlers in
// server/endpoint; both can also be used on their own with gin or chi.
package server
