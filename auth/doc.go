// Package auth provides the authentication engine and the contracts it is
// built on.
//
// Subpackages supply the pluggable parts:
//
//   - auth/jwt: default TokenStrategy backed by signed JWTs
//   - auth/password: password hashing (bcrypt, argon2id)
//   - auth/memory: reference in-memory UserStore
//   - auth/authctx: request context propagation for the authenticated user
//   - auth/storetest: conformance suite every UserStore adapter must pass
//
// The top-level package provides:
//
//   - Engine: register / login / verify / logout orchestration
//   - UserStore: persistence contract (memory, GORM, pgx, Redis, Mongo)
//   - TokenStrategy: credential issuance/verification contract
//   - Result: the uniform outcome envelope of every Engine operation
//   - ValidationConfig and Hooks: per-engine customization
//
// Usage:
//
//	strategy, _ := jwt.NewStrategy(jwt.Config{Secret: "change-me"})
//	engine, _ := auth.NewEngine(memory.New(), strategy,
//	    auth.WithValidation(auth.ValidationConfig{
//	        Fields: validation.Rules{"age": validation.Min(18)},
//	    }),
//	)
//	res := engine.Register(ctx, map[string]any{"email": "a@b.com", "password": "secret1"})
//	if !res.Success {
//	    // res.Error, res.Errors
//	}
package auth
