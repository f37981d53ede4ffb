package twitterimpl

import (
	"context"
	"fmt"
	"net/url"

	"github.com/orgball2608/tweet-fetcher/internal/twitter"
)

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

type apiUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type userResponse struct {
	Data   *apiUser   `json:"data"`
	Errors []apiError `json:"errors"`
}

// lookupUser resolves a handle to the account id used by the timeline endpoint.
func (t *TwitterImpl) lookupUser(ctx context.Context, username string) (*apiUser, error) {
	var resp userResponse
	query := url.Values{"user.fields": {"name,username"}}
	path := "/2/users/by/username/" + url.PathEscape(username)

	if err := t.getJSON(ctx, "LookupUser", path, query, &resp); err != nil {
		return nil, err
	}

	// Suspended and unknown handles come back as 200 with an errors payload.
	if resp.Data == nil {
		detail := "no data"
		if len(resp.Errors) > 0 {
			detail = resp.Errors[0].Detail
		}
		return nil, fmt.Errorf("%w: %s", twitter.ErrUserNotFound, detail)
	}

	return resp.Data, nil
}
