// Package http exposes the booking engine and schedule resolver as a JSON API
// for the chat integration.
//
// The router exposes the following endpoints:
//   - POST /sessions: ensures a session exists. Body: {"sessionId","capacity"}.
//     An existing session keeps its original capacity.
//   - GET /sessions/{id}: returns the stored session state or 404.
//   - GET /sessions/{id}/booking: reports {"booked"} for the caller.
//   - PUT /sessions/{id}/channel-message: records the chat card that announced
//     the session. Body: {"conversationId","serviceUrl","activityId"}.
//   - POST /actions: applies a {"action":"book"|"cancel","sessionId","capacity"}
//     action for the caller. FULL and ALREADY_* outcomes are 200 responses with
//     "ok": false and a "reason".
//   - GET /schedule/rule?date=YYYY-MM-DD: the rule governing a date.
//   - GET /schedule/next?from=YYYY-MM-DD&horizon=N: the next occurrence strictly
//     after from.
//   - GET /schedule/upcoming?from=YYYY-MM-DD&days=N: every occurrence in the
//     N days starting at from.
//
// The caller identity is the opaque X-User-ID header. Routes acting on behalf
// of a user answer 401 when it is absent.
package http
