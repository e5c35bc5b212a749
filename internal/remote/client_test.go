package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testServer(t *testing.T, handler http.HandlerFunc) (*Client, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	c := New(srv.URL, "test-token", srv.Client(), nil, nil)
	return c, srv.Close
}

func TestListTasksDecodesWire(t *testing.T) {
	c, closeFn := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode([]wireTask{
			{ID: "t1", Content: "Write report", Priority: 4, Due: &wireDue{Date: "2025-03-15"}},
		})
	})
	defer closeFn()

	tasks, err := c.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks["t1"].Content != "Write report" {
		t.Errorf("unexpected tasks: %+v", tasks)
	}
	if tasks["t1"].Due.Date != "2025-03-15" {
		t.Errorf("due not decoded: %+v", tasks["t1"].Due)
	}
}

func TestGetTaskReturnsNilOnNotFound(t *testing.T) {
	c, closeFn := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer closeFn()

	task, err := c.GetTask(context.Background(), "gone")
	if err != nil {
		t.Fatalf("expected nil error on 404, got %v", err)
	}
	if task != nil {
		t.Errorf("expected nil task, got %+v", task)
	}
}

func TestDoRequestMapsAuthError(t *testing.T) {
	c, closeFn := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer closeFn()

	_, err := c.ListTasks(context.Background())
	if _, ok := err.(*AuthError); !ok {
		t.Errorf("expected *AuthError, got %T: %v", err, err)
	}
}

func TestActivityDecodesEvents(t *testing.T) {
	c, closeFn := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wireActivityPage{
			Count: 1,
			Events: []wireEvent{
				{ID: "e1", EventDate: "2025-03-10T12:00:00", EventType: "added", ObjectType: "item", ObjectID: "t1"},
			},
		})
	})
	defer closeFn()

	page, err := c.Activity(context.Background(), 100, 0)
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if page.Count != 1 || len(page.Events) != 1 || page.Events[0].ObjectID != "t1" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestActivitySkipsMalformedEvent(t *testing.T) {
	c, closeFn := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(wireActivityPage{
			Count: 1,
			Events: []wireEvent{
				{ID: "bad", EventDate: "not-a-date", EventType: "added", ObjectType: "item", ObjectID: "t1"},
			},
		})
	})
	defer closeFn()

	page, err := c.Activity(context.Background(), 100, 0)
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if len(page.Events) != 0 {
		t.Errorf("expected malformed event to be skipped, got %+v", page.Events)
	}
}
