package cont

import (
	"context"
)

type ctxKey string

const ClientKey ctxKey = "client"

func PutClient(c context.Context, client string) context.Context {
	return context.WithValue(c, ClientKey, client)
}

// GetClient returns the authenticated client name, or "" outside the API.
func GetClient(c context.Context) string {
	client, ok := c.Value(ClientKey).(string)
	if !ok {
		return ""
	}
	return client
}
