// Package middleware provides HTTP middleware for the Herald API.
//
// Global middleware is applied with Chain, outermost first:
//
//	wrapped := middleware.Chain(mux,
//	    middleware.RequestID,
//	    middleware.Logger(logger),
//	    middleware.Recovery,
//	    middleware.CORS(origins),
//	    middleware.RateLimit(limiter),
//	    middleware.Idempotency(store),
//	    middleware.Compress,
//	)
//
// Operator routes are wrapped individually with OperatorKey.Require.
//
// Rate limiting and idempotency key callers with ClientKey: a digest of the
// Authorization header when present, otherwise the remote IP.
package middleware
