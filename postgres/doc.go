// Package postgres provides an auth.UserStore on PostgreSQL using pgx.
//
//	pool, err := postgres.Connect(ctx, postgres.Config{DSN: os.Getenv("DATABASE_URL")}, log)
//	if err != nil {
//	    return err
//	}
//	if err := postgres.Migrate(ctx, pool); err != nil {
//	    return err
//	}
//	store := postgres.NewUserStore(pool)
//
// Extra user attributes live in a JSONB column. Email uniqueness is the
// users_email_key_unique constraint over the normalized email; SQLSTATE
// 23505 is reported as auth.ErrDuplicateEmail.
package postgres
