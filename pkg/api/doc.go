// Package api hosts the Gin HTTP server: the booking endpoint, health,
// version and metrics routes, plus the ambient middleware stack
// (zap access logs, recovery, CORS, request ids, per-IP limiting).
package api
