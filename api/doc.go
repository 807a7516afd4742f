// Package api serves course search over HTTP.
//
// Routes:
//
//	GET /                 health message
//	GET /api/search       ?query=&limit=&subject_filter=
//	GET /api/subjects     sorted subject codes
//	GET /api/stats        catalog size and dimension
//
// Validation failures answer 422 with {"detail": "..."}. Embedding service
// failures answer 502.
package api
