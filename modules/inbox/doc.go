// Package inbox exposes a user's notification inbox over HTTP.
//
// Routes, relative to where the router is mounted:
//
//	GET  /               newest notifications, ?limit=N (default 20, capped at 100)
//	GET  /unread-count   {"count": n}
//	POST /{id}/read      marks one of the caller's notifications read, 204
//	POST /read-all       {"updated": n}
//	GET  /ws             WebSocket push stream
//
// The WebSocket stream first sends {"event":"connected"} and then one
// {"event":"notification.created","data":{...}} frame per new notification.
// The server pings every 54 seconds; a client that does not answer within
// 60 seconds is disconnected.
//
// The caller is identified by Options.Identify, by default the X-User-ID
// header set by an authenticating gateway.
package inbox
