package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Login exchanges tenant credentials for a bearer token.
//
// The returned token is not stored; callers persist it (see pkg/store) and
// hand the store to New as the TokenSource.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username", ErrMissingField)
	}
	if password == "" {
		return nil, fmt.Errorf("%w: password", ErrMissingField)
	}

	in := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}

	var res LoginResult
	if err := c.doJSON(ctx, http.MethodPost, c.endpoint("auth", "login"), in, &res); err != nil {
		return nil, err
	}
	if res.Token == "" {
		return nil, &APIError{StatusCode: http.StatusOK, Message: "login response carried no token"}
	}

	c.logger.Info("logged in", "tenant", res.Tenant.Name)
	return &res, nil
}
