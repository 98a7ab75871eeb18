// Package authkit wires the auth engine, a token strategy and a user store
// behind a few lines of setup.
//
//	engine, err := authkit.New(authkit.Config{
//	    JWT: jwt.Config{Secret: os.Getenv("JWT_SECRET")},
//	})
//	res := engine.Register(ctx, map[string]any{"email": "a@b.com", "password": "secret1"})
//
// For a persistent store, open one from configuration:
//
//	store, closeStore, err := authkit.OpenStore(ctx, cfg.Store, log)
//	defer closeStore(context.Background())
//	engine, err := authkit.New(cfg, authkit.WithStore(store))
//
// HTTP wiring lives in server/middleware and server/endpoint.
package authkit
