// Package remote talks to the hosted task-management workspace over its
// read-only REST API: tasks, projects, sections, labels, and the activity
// event log.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/nvoss/horizonsync/internal/dateparse"
	"github.com/nvoss/horizonsync/internal/eventlog"
	"github.com/nvoss/horizonsync/internal/models"
)

// Client is a read-only client for the remote workspace API.
type Client struct {
	BaseURL  string
	APIToken string
	HTTP     *http.Client
	Limiter  *rate.Limiter
	Log      *slog.Logger
}

// New constructs a Client. limiter may be nil, in which case requests are
// not throttled client-side.
func New(baseURL, apiToken string, httpClient *http.Client, limiter *rate.Limiter, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Client{BaseURL: baseURL, APIToken: apiToken, HTTP: httpClient, Limiter: limiter, Log: log}
}

type apiError struct {
	Code    string `json:"error_code"`
	Message string `json:"error"`
}

// doRequest issues a GET against path with the given query values and
// unmarshals the JSON response body into result (when non-nil). Auth is
// always applied: every endpoint on this API requires a bearer token.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values, result any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("remote: rate limiter: %w", err)
		}
	}

	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &RemoteError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Err: err}
	}

	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode, path, body)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("remote: decode %s: %w", path, err)
		}
	}
	return nil
}

func statusError(status int, path string, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{StatusCode: status}
	case http.StatusNotFound:
		return &NotFoundError{Path: path}
	case http.StatusTooManyRequests:
		return &RateLimitedError{}
	}
	if status >= 500 {
		return &RemoteServerError{StatusCode: status}
	}
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return &RemoteError{Err: fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)}
	}
	return &RemoteError{Err: fmt.Errorf("unexpected status %d from %s", status, path)}
}

// withRetry retries fn with exponential backoff, short-circuiting
// immediately on AuthError/NotFoundError since neither heals with time.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	return backoff.Retry(func() error {
		err := fn()
		switch err.(type) {
		case *AuthError, *NotFoundError:
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// ListTasks returns every active (non-deleted) task in the workspace.
func (c *Client) ListTasks(ctx context.Context) (map[string]models.Task, error) {
	var wire []wireTask
	err := c.withRetry(ctx, func() error {
		return c.doRequest(ctx, "/rest/v2/tasks", nil, &wire)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Task, len(wire))
	for _, w := range wire {
		t := w.toModel()
		out[t.ID] = t
	}
	return out, nil
}

// GetTask fetches a single task by id. A 404 is not an error here: it
// means the task is permanently gone, and the caller gets (nil, nil).
func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var wire wireTask
	err := c.withRetry(ctx, func() error {
		return c.doRequest(ctx, "/rest/v2/tasks/"+id, nil, &wire)
	})
	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t := wire.toModel()
	return &t, nil
}

// ListProjects returns every project in the workspace.
func (c *Client) ListProjects(ctx context.Context) (map[string]models.Project, error) {
	var wire []wireProject
	err := c.withRetry(ctx, func() error {
		return c.doRequest(ctx, "/rest/v2/projects", nil, &wire)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Project, len(wire))
	for _, w := range wire {
		p := w.toModel()
		out[p.ID] = p
	}
	return out, nil
}

// ListSections returns every section in the workspace.
func (c *Client) ListSections(ctx context.Context) (map[string]models.Section, error) {
	var wire []wireSection
	err := c.withRetry(ctx, func() error {
		return c.doRequest(ctx, "/rest/v2/sections", nil, &wire)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Section, len(wire))
	for _, w := range wire {
		s := w.toModel()
		out[s.ID] = s
	}
	return out, nil
}

// ListLabels returns every label in the workspace.
func (c *Client) ListLabels(ctx context.Context) (map[string]models.Label, error) {
	var wire []wireLabel
	err := c.withRetry(ctx, func() error {
		return c.doRequest(ctx, "/rest/v2/labels", nil, &wire)
	})
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Label, len(wire))
	for _, w := range wire {
		l := w.toModel()
		out[l.ID] = l
	}
	return out, nil
}

// ListArchivedTasksForProject returns completed/archived tasks for one
// project. Nothing in the sync pipeline calls it; task reconstruction in
// internal/diffengine folds the activity events instead.
func (c *Client) ListArchivedTasksForProject(ctx context.Context, projectID string) ([]models.Task, error) {
	var wire []wireTask
	q := url.Values{"project_id": {projectID}}
	err := c.withRetry(ctx, func() error {
		return c.doRequest(ctx, "/sync/v9/archive/items", q, &wire)
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Task, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toModel())
	}
	return out, nil
}

// Activity satisfies eventlog.ActivityFetcher: fetches one page of the
// activity log, most recent events first.
func (c *Client) Activity(ctx context.Context, limit, offset int) (eventlog.ActivityPage, error) {
	var wire wireActivityPage
	q := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(offset)},
	}
	err := c.withRetry(ctx, func() error {
		return c.doRequest(ctx, "/sync/v9/activity/get", q, &wire)
	})
	if err != nil {
		return eventlog.ActivityPage{}, err
	}

	events := make([]models.Event, 0, len(wire.Events))
	for _, w := range wire.Events {
		ev, err := w.toModel()
		if err != nil {
			c.Log.Warn("remote: skipping malformed activity event", "event_id", w.ID, "err", err)
			continue
		}
		events = append(events, ev)
	}
	return eventlog.ActivityPage{Events: events, Count: wire.Count}, nil
}

type wireTask struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Priority    int      `json:"priority"`
	ProjectID   string   `json:"project_id"`
	SectionID   string   `json:"section_id"`
	ParentID    string   `json:"parent_id"`
	Labels      []string `json:"labels"`
	Order       int      `json:"order"`
	IsCompleted bool     `json:"is_completed"`
	Due         *wireDue `json:"due"`
}

func (w wireTask) toModel() models.Task {
	return models.Task{
		ID:          w.ID,
		Content:     w.Content,
		Description: w.Description,
		Priority:    w.Priority,
		ProjectID:   w.ProjectID,
		SectionID:   w.SectionID,
		ParentID:    w.ParentID,
		Labels:      w.Labels,
		Order:       w.Order,
		IsCompleted: w.IsCompleted,
		Due:         w.Due.toModel(),
	}
}

type wireDue struct {
	Date        string `json:"date"`
	Datetime    string `json:"datetime"`
	String      string `json:"string"`
	IsRecurring bool   `json:"is_recurring"`
	Timezone    string `json:"timezone"`
}

func (w *wireDue) toModel() *models.Due {
	if w == nil {
		return nil
	}
	return &models.Due{
		Date:        w.Date,
		Datetime:    w.Datetime,
		String:      w.String,
		IsRecurring: w.IsRecurring,
		Timezone:    w.Timezone,
	}
}

type wireProject struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ParentID   string `json:"parent_id"`
	Color      string `json:"color"`
	IsInbox    bool   `json:"is_inbox_project"`
	IsFavorite bool   `json:"is_favorite"`
}

func (w wireProject) toModel() models.Project {
	return models.Project{
		ID:         w.ID,
		Name:       w.Name,
		ParentID:   w.ParentID,
		Color:      w.Color,
		IsInbox:    w.IsInbox,
		IsFavorite: w.IsFavorite,
	}
}

type wireSection struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Order     int    `json:"order"`
}

func (w wireSection) toModel() models.Section {
	return models.Section{ID: w.ID, ProjectID: w.ProjectID, Name: w.Name, Order: w.Order}
}

type wireLabel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	IsFavorite bool   `json:"is_favorite"`
}

func (w wireLabel) toModel() models.Label {
	return models.Label{ID: w.ID, Name: w.Name, Color: w.Color, IsFavorite: w.IsFavorite}
}

type wireActivityPage struct {
	Events []wireEvent `json:"events"`
	Count  int         `json:"count"`
}

type wireEvent struct {
	ID              string         `json:"id"`
	EventDate       string         `json:"event_date"`
	EventType       string         `json:"event_type"`
	ObjectType      string         `json:"object_type"`
	ObjectID        string         `json:"object_id"`
	ExtraData       map[string]any `json:"extra_data"`
	InitiatorID     string         `json:"initiator_id"`
	ParentItemID    string         `json:"parent_item_id"`
	ParentProjectID string         `json:"parent_project_id"`
}

func (w wireEvent) toModel() (models.Event, error) {
	date, err := dateparse.ParseDatetime(w.EventDate)
	if err != nil {
		return models.Event{}, fmt.Errorf("event %s: %w", w.ID, err)
	}
	return models.Event{
		ID:              w.ID,
		EventDate:       date,
		EventType:       models.EventType(w.EventType),
		ObjectType:      models.ObjectType(w.ObjectType),
		ObjectID:        w.ObjectID,
		ExtraData:       w.ExtraData,
		InitiatorID:     w.InitiatorID,
		ParentItemID:    w.ParentItemID,
		ParentProjectID: w.ParentProjectID,
	}, nil
}
