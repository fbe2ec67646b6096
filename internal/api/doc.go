// Package api exposes the clip pipeline over HTTP with gin.
//
// Routes:
//
//	POST /api/clip      submit a clip request, 202 {"id": ...}
//	GET  /api/clip/:id  read a job record
//	GET  /api/ping      liveness, {"success": true}
//	GET  /              plain-text banner
//
// Every request carries a correlation id (X-Request-ID, generated when
// absent) that is stamped onto the request context and therefore onto every
// log line of the job it creates.
package api
