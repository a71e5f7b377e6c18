package logger

import (
	"log/slog"
	"time"
)

// Error logs err under "error". Nil yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func PrincipalID(id int64) slog.Attr { return slog.Int64("principal_id", id) }

func PrincipalEmail(email string) slog.Attr { return slog.String("principal_email", email) }

func TenantID(id int64) slog.Attr { return slog.Int64("tenant_id", id) }

func TenantName(name string) slog.Attr { return slog.String("tenant_name", name) }

// AttemptedTenantID is the tenant a request tried to reach.
func AttemptedTenantID(id int64) slog.Attr { return slog.Int64("attempted_tenant_id", id) }

func Action(action string) slog.Attr { return slog.String("action", action) }

func ResourceKind(kind string) slog.Attr { return slog.String("resource_kind", kind) }

// ResourceID logs a resource identifier of any type. Nil yields an empty Attr.
func ResourceID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("resource_id", id)
}

// RequestID records the request identifier. Empty ids yield an empty Attr.
func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

func Duration(d time.Duration) slog.Attr { return slog.Duration("duration", d) }

func Component(name string) slog.Attr { return slog.String("component", name) }

// Event names a security or lifecycle event, e.g. "tenant_switch".
func Event(name string) slog.Attr { return slog.String("event", name) }

// Handler names the HTTP handler that produced a record.
func Handler(name string) slog.Attr { return slog.String("handler", name) }
