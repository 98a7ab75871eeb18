// Package redis provides the Redis-backed auth.UserStore and the go-redis
// client wrapper it runs on.
//
// Key layout, with the default "authkit" prefix:
//
//	authkit:user:<id>       JSON user document
//	authkit:email:<email>   owning id, keyed by the normalized email
//
// Registration writes the email key and the document in one WATCH/MULTI
// transaction, which is what makes email uniqueness hold across processes.
// An email key whose document is missing is treated as free. Updates and
// deletes run the same way, and every transaction retries up to
// Config.MaxTxRetries times on contention.
//
// # Quick Start
//
//	client, err := redis.New(redis.Config{Addr: "localhost:6379"}, log)
//	if err != nil {
//	    return err
//	}
//	store := redis.NewUserStore(client)
//
// TypedStore is the generic JSON codec underneath and can be used on its own:
//
//	docs := redis.NewTypedStore[Profile](client, "profiles")
//	err := docs.Save(ctx, id, &profile, time.Hour)
package redis
