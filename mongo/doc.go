// Package mongo provides an auth.UserStore on MongoDB.
//
//	store, err := mongo.OpenUserStore(ctx, mongo.Config{URI: "mongodb://localhost:27017"}, log)
//	if err != nil {
//	    return err
//	}
//	defer store.Close(context.Background())
//
// Each user is one document keyed by id. Email uniqueness is the
// email_key_unique index over the normalized email, and updates are single
// FindOneAndUpdate calls so no transaction is needed.
package mongo
