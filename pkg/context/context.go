package context

import "context"

type ContextKey string

var requestKey = ContextKey("thistle-request")

// SystemUser is recorded as the acting user when a request carries none.
const SystemUser = "SYS"

// Request describes the inbound call a context belongs to.
type Request struct {
	ID       string
	UserID   string
	Method   string
	Route    string
	RemoteIP string
}

func WithRequest(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestKey, req)
}

func GetRequest(ctx context.Context) Request {
	req, _ := ctx.Value(requestKey).(Request)
	return req
}

func GetRequestID(ctx context.Context) string {
	return GetRequest(ctx).ID
}

// SetUserID records the acting user, keeping any other request details.
func SetUserID(ctx context.Context, userID string) context.Context {
	req := GetRequest(ctx)
	req.UserID = userID
	return WithRequest(ctx, req)
}

func GetUserID(ctx context.Context) string {
	return GetRequest(ctx).UserID
}

// GetActor returns the user written to created_by columns and events.
func GetActor(ctx context.Context) string {
	if user := GetUserID(ctx); user != "" {
		return user
	}
	return SystemUser
}

// LogFields returns the request details worth attaching to a log line. Empty
// values are left out.
func LogFields(ctx context.Context) map[string]any {
	req := GetRequest(ctx)
	fields := map[string]any{}
	for key, value := range map[string]string{
		"request_id": req.ID,
		"user_id":    req.UserID,
		"method":     req.Method,
		"route":      req.Route,
		"remote_ip":  req.RemoteIP,
	} {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}
