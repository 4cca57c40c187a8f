// Package http provides HTTP handlers and middleware for the clinic API.
//
// The router exposes the following endpoints:
//   - POST /login: issues a session token. Body: {"email","password"}. Response:
//     {"token","expires_at","principal":{"user_id","is_admin"}} with token also
//     surfaced via the `X-Session-Token` header and a `session_token` cookie.
//   - POST /logout: revokes the current session token extracted from the Authorization
//     header or session cookie. Returns 204 No Content and clears the cookie.
//   - GET /schedule/day?date=YYYY-MM-DD: loads the day across all cabinets,
//     including per-cabinet load warnings when part of the store is unreachable.
//     POST /schedule/day/next and POST /schedule/day/prev step the loaded day.
//   - POST /schedule/appointments: creates a blank draft in a cabinet. The draft
//     is then shaped one field at a time with PATCH /schedule/appointments/{id},
//     reopened with POST /schedule/appointments/{id}/edit, persisted with
//     POST /schedule/appointments/{id}/commit, and removed with DELETE.
//   - GET /rooms, POST /rooms, DELETE /rooms/{id}: cabinet catalog endpoints.
//     Deleting a cabinet also removes its stored appointments.
//   - GET /clients, POST /clients, GET /clients/{id}, PUT /clients/{id}: client
//     registry endpoints exchanging the `clientDTO` payload in client_handler.go.
//   - GET /roster?date=YYYY-MM-DD, PUT /roster: doctor duty roster per day.
//     Roster writes invalidate the cached availability for that date.
//   - GET /beds, POST /beds, POST /beds/{id}/assign, POST /beds/{id}/release:
//     ward bed occupancy endpoints.
//   - GET /stock, POST /stock, PUT /stock/{id}, DELETE /stock/{id}: supply
//     inventory endpoints.
//   - GET /reports/day?date=, GET /reports/day/export?date=: per-day committed
//     appointment counts and a CSV export of the day.
//
// Request/response DTOs live alongside their respective handlers so tests and
// documentation share the same ground truth.
package http
