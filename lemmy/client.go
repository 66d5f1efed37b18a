package lemmy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/go-querystring/query"

	"lemmy-mod-bot/model"
	"lemmy-mod-bot/utils"
)

// Client is the surface of the Lemmy API the bot consumes. All mutating
// calls are idempotent on the Lemmy side: re-issuing the same command is a
// safe no-op.
type Client interface {
	Login(ctx context.Context, username, password string) (string, error)

	GetPosts(ctx context.Context, req GetPosts) ([]model.PostView, error)
	GetComments(ctx context.Context, req GetComments) ([]model.CommentView, error)
	ListPostReports(ctx context.Context, req ListReports) ([]model.PostReportView, error)
	ListCommentReports(ctx context.Context, req ListReports) ([]model.CommentReportView, error)
	GetPost(ctx context.Context, auth string, postID int) (*model.PostView, error)
	GetComment(ctx context.Context, auth string, commentID int) (*model.CommentView, error)

	RemovePost(ctx context.Context, auth string, postID int, removed bool, reason string) error
	RemoveComment(ctx context.Context, auth string, commentID int, removed bool, reason string) error
	LockPost(ctx context.Context, auth string, postID int, locked bool) error
	BanFromCommunity(ctx context.Context, auth string, communityID, personID int, ban bool, reason string) error
	ResolvePostReport(ctx context.Context, auth string, reportID int, resolved bool) error
	ResolveCommentReport(ctx context.Context, auth string, reportID int, resolved bool) error
}

// GetPosts are the query parameters for GET /post/list.
type GetPosts struct {
	CommunityID int    `url:"community_id,omitempty"`
	Sort        string `url:"sort,omitempty"`
	Type        string `url:"type_,omitempty"`
	Page        int    `url:"page,omitempty"`
	Limit       int    `url:"limit,omitempty"`
	Auth        string `url:"auth,omitempty"`
}

// GetComments are the query parameters for GET /comment/list.
type GetComments struct {
	CommunityID int    `url:"community_id,omitempty"`
	Sort        string `url:"sort,omitempty"`
	Type        string `url:"type_,omitempty"`
	Page        int    `url:"page,omitempty"`
	Limit       int    `url:"limit,omitempty"`
	Auth        string `url:"auth,omitempty"`
}

// ListReports are the query parameters for GET /post/report/list and
// GET /comment/report/list.
type ListReports struct {
	CommunityID    int    `url:"community_id,omitempty"`
	Page           int    `url:"page,omitempty"`
	Limit          int    `url:"limit,omitempty"`
	UnresolvedOnly bool   `url:"unresolved_only,omitempty"`
	Auth           string `url:"auth"`
}

// HTTPClient talks to a single Lemmy instance over its v3 HTTP API.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(instance string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(instance, "/") + "/api/v3",
		http:    utils.NewHTTPClient(),
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params, out interface{}) error {
	values, err := query.Values(params)
	if err != nil {
		return fmt.Errorf("failed to encode query for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+values.Encode(), nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *HTTPClient) send(ctx context.Context, method, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode body for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *HTTPClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("lemmy api %s %s: status %s, body: %s", req.Method, req.URL.Path, resp.Status, string(body))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{
		"username_or_email": username,
		"password":          password,
	}
	var out struct {
		JWT string `json:"jwt"`
	}
	if err := c.send(ctx, http.MethodPost, "/user/login", body, &out); err != nil {
		return "", fmt.Errorf("login failed for %s: %w", username, err)
	}
	if out.JWT == "" {
		return "", fmt.Errorf("login for %s returned no token", username)
	}
	return out.JWT, nil
}

func (c *HTTPClient) GetPosts(ctx context.Context, req GetPosts) ([]model.PostView, error) {
	var out struct {
		Posts []model.PostView `json:"posts"`
	}
	if err := c.get(ctx, "/post/list", req, &out); err != nil {
		return nil, err
	}
	return out.Posts, nil
}

func (c *HTTPClient) GetComments(ctx context.Context, req GetComments) ([]model.CommentView, error) {
	var out struct {
		Comments []model.CommentView `json:"comments"`
	}
	if err := c.get(ctx, "/comment/list", req, &out); err != nil {
		return nil, err
	}
	return out.Comments, nil
}

func (c *HTTPClient) ListPostReports(ctx context.Context, req ListReports) ([]model.PostReportView, error) {
	var out struct {
		PostReports []model.PostReportView `json:"post_reports"`
	}
	if err := c.get(ctx, "/post/report/list", req, &out); err != nil {
		return nil, err
	}
	return out.PostReports, nil
}

func (c *HTTPClient) ListCommentReports(ctx context.Context, req ListReports) ([]model.CommentReportView, error) {
	var out struct {
		CommentReports []model.CommentReportView `json:"comment_reports"`
	}
	if err := c.get(ctx, "/comment/report/list", req, &out); err != nil {
		return nil, err
	}
	return out.CommentReports, nil
}

func (c *HTTPClient) GetPost(ctx context.Context, auth string, postID int) (*model.PostView, error) {
	params := struct {
		ID   int    `url:"id"`
		Auth string `url:"auth,omitempty"`
	}{ID: postID, Auth: auth}
	var out struct {
		PostView model.PostView `json:"post_view"`
	}
	if err := c.get(ctx, "/post", params, &out); err != nil {
		return nil, err
	}
	return &out.PostView, nil
}

func (c *HTTPClient) GetComment(ctx context.Context, auth string, commentID int) (*model.CommentView, error) {
	params := struct {
		ID   int    `url:"id"`
		Auth string `url:"auth,omitempty"`
	}{ID: commentID, Auth: auth}
	var out struct {
		CommentView model.CommentView `json:"comment_view"`
	}
	if err := c.get(ctx, "/comment", params, &out); err != nil {
		return nil, err
	}
	return &out.CommentView, nil
}

func (c *HTTPClient) RemovePost(ctx context.Context, auth string, postID int, removed bool, reason string) error {
	body := map[string]interface{}{
		"post_id": postID,
		"removed": removed,
		"reason":  reason,
		"auth":    auth,
	}
	return c.send(ctx, http.MethodPost, "/post/remove", body, nil)
}

func (c *HTTPClient) RemoveComment(ctx context.Context, auth string, commentID int, removed bool, reason string) error {
	body := map[string]interface{}{
		"comment_id": commentID,
		"removed":    removed,
		"reason":     reason,
		"auth":       auth,
	}
	return c.send(ctx, http.MethodPost, "/comment/remove", body, nil)
}

func (c *HTTPClient) LockPost(ctx context.Context, auth string, postID int, locked bool) error {
	body := map[string]interface{}{
		"post_id": postID,
		"locked":  locked,
		"auth":    auth,
	}
	return c.send(ctx, http.MethodPost, "/post/lock", body, nil)
}

func (c *HTTPClient) BanFromCommunity(ctx context.Context, auth string, communityID, personID int, ban bool, reason string) error {
	body := map[string]interface{}{
		"community_id": communityID,
		"person_id":    personID,
		"ban":          ban,
		"auth":         auth,
	}
	if reason != "" {
		body["reason"] = reason
	}
	return c.send(ctx, http.MethodPost, "/community/ban_user", body, nil)
}

func (c *HTTPClient) ResolvePostReport(ctx context.Context, auth string, reportID int, resolved bool) error {
	body := map[string]interface{}{
		"report_id": reportID,
		"resolved":  resolved,
		"auth":      auth,
	}
	return c.send(ctx, http.MethodPut, "/post/report/resolve", body, nil)
}

func (c *HTTPClient) ResolveCommentReport(ctx context.Context, auth string, reportID int, resolved bool) error {
	body := map[string]interface{}{
		"report_id": reportID,
		"resolved":  resolved,
		"auth":      auth,
	}
	return c.send(ctx, http.MethodPut, "/comment/report/resolve", body, nil)
}
