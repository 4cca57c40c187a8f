package http

import (
	"context"
	"log/slog"

	"github.com/example/clinic-ops/internal/application"
)

type contextKey string

const (
	principalContextKey     contextKey = "principal"
	loggerContextKey        contextKey = "logger"
	appointmentIDContextKey contextKey = "appointment_id"
	roomIDContextKey        contextKey = "room_id"
	clientIDContextKey      contextKey = "client_id"
	bedIDContextKey         contextKey = "bed_id"
	itemIDContextKey        contextKey = "item_id"
)

// ContextWithPrincipal returns a derived context containing the authenticated principal.
func ContextWithPrincipal(ctx context.Context, principal application.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the authenticated principal from context if available.
func PrincipalFromContext(ctx context.Context) (application.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(application.Principal)
	return principal, ok
}

// ContextWithLogger attaches a request scoped logger to the context.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext extracts the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger, _ := ctx.Value(loggerContextKey).(*slog.Logger)
	return logger
}

// ContextWithAppointmentID injects the appointment identifier resolved from the request path.
func ContextWithAppointmentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, appointmentIDContextKey, id)
}

// AppointmentIDFromContext extracts an appointment identifier previously associated with the context.
func AppointmentIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(appointmentIDContextKey).(string)
	return id, ok
}

// ContextWithRoomID injects the room identifier resolved from the request path.
func ContextWithRoomID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, roomIDContextKey, id)
}

// RoomIDFromContext extracts a room identifier previously associated with the context.
func RoomIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(roomIDContextKey).(string)
	return id, ok
}

// ContextWithClientID injects the client identifier resolved from the request path.
func ContextWithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDContextKey, id)
}

// ClientIDFromContext extracts a client identifier previously associated with the context.
func ClientIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(clientIDContextKey).(string)
	return id, ok
}

// ContextWithBedID injects the bed identifier resolved from the request path.
func ContextWithBedID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, bedIDContextKey, id)
}

// BedIDFromContext extracts a bed identifier previously associated with the context.
func BedIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(bedIDContextKey).(string)
	return id, ok
}

// ContextWithItemID injects the stock item identifier resolved from the request path.
func ContextWithItemID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, itemIDContextKey, id)
}

// ItemIDFromContext extracts a stock item identifier previously associated with the context.
func ItemIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(itemIDContextKey).(string)
	return id, ok
}
