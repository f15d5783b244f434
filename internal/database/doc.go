// Package database provides SurrealDB connectivity for the Herald API.
//
// Users who connect a LinkedIn account and the publish history written by
// every delivery attempt live in SurrealDB. Scheduled posts do not: they are
// held in memory by the scheduler package.
//
// # Database Interface
//
// Repositories depend on the Database interface:
//
//   - Query: statements returning one result set each
//   - QueryOne: the first record of the first statement
//   - Execute: mutations whose result is discarded
//
// # Error Types
//
//   - ErrNotFound: record does not exist
//   - ErrDuplicate: unique index violation
//   - ErrConnection: connect, sign-in or namespace selection failed
//   - ErrQuery: a statement returned an error status
//
// # Usage
//
//	db := database.NewSurrealDB(database.Config{
//	    Host:      "localhost",
//	    Port:      "8000",
//	    User:      "root",
//	    Password:  "root",
//	    Namespace: "herald",
//	    Database:  "main",
//	})
//	if err := db.Connect(ctx); err != nil {
//	    return err
//	}
//	defer db.Close()
package database
