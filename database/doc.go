// Package database provides the GORM-backed auth.UserStore with connection
// pooling, retrying connects, tracked schema migrations and translation of
// database errors to AppError.
//
// # Quick Start
//
//	store, err := database.OpenUserStore(ctx, database.Config{
//	    DSN:         "file:auth.db",
//	    AutoMigrate: true,
//	}, log)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	engine, err := auth.NewEngine(store, strategy)
//
// Open selects the dialector from Config.Driver (SQLite is built in). Any
// other GORM dialector can be used through NewWithContext and NewUserStore.
//
// # Uniqueness
//
// Emails are stored twice: as given, and normalized in email_key under a
// unique index. A registration that loses a race fails with
// auth.ErrDuplicateEmail rather than creating a second account.
//
// # Logging
//
// Queries are logged through the authkit logger with bound parameters
// stripped, so password hashes never reach the log.
package database
