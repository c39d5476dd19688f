// Package resource limits concurrent work in the query server.
//
// A Controller bounds two things:
//
//   - Queries: the number of lookups in flight. Admission is non-blocking;
//     callers reject the request when no slot is free.
//   - Reloads: catalog reloads never overlap. A reload requested while one
//     is running is rejected.
//
//	rc := resource.NewController(resource.Config{MaxInflight: 64})
//	if !rc.TryAcquireQuery() {
//	    return errTooManyRequests
//	}
//	defer rc.ReleaseQuery()
//
// All methods are safe for concurrent use, and a nil Controller admits everything.
package resource
