package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"

	"ytauto/internal/retry"
)

type apiEvent struct {
	ID          string `json:"id,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Start       struct {
		DateTime string `json:"dateTime,omitempty"`
		Date     string `json:"date,omitempty"`
		TimeZone string `json:"timeZone,omitempty"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime,omitempty"`
		Date     string `json:"date,omitempty"`
		TimeZone string `json:"timeZone,omitempty"`
	} `json:"end"`
}

// fakeCalendar is an in-memory Calendar API.
type fakeCalendar struct {
	t         *testing.T
	mu        sync.Mutex
	calendars []map[string]any
	events    map[string][]apiEvent
	nextID    int
	requests  []string
}

func newFake(t *testing.T) *fakeCalendar {
	return &fakeCalendar{t: t, events: make(map[string][]apiEvent)}
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	f.requests = append(f.requests, r.Method+" "+path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(path, "/users/me/calendarList"):
		// Two pages so the client has to follow nextPageToken.
		half := len(f.calendars) / 2
		if r.URL.Query().Get("pageToken") == "" {
			json.NewEncoder(w).Encode(map[string]any{"items": f.calendars[:half], "nextPageToken": "more"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"items": f.calendars[half:]})

	case strings.HasSuffix(path, "/calendars") && r.Method == http.MethodPost:
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.nextID++
		body["id"] = fmt.Sprintf("cal%d", f.nextID)
		f.calendars = append(f.calendars, body)
		json.NewEncoder(w).Encode(body)

	case strings.Contains(path, "/events"):
		parts := strings.Split(path, "/")
		i := indexOf(parts, "events")
		calID := parts[i-1]
		eventID := ""
		if i+1 < len(parts) {
			eventID = parts[i+1]
		}
		f.serveEvents(w, r, calID, eventID)

	default:
		f.t.Errorf("unexpected request %s %s", r.Method, path)
		http.NotFound(w, r)
	}
}

func (f *fakeCalendar) serveEvents(w http.ResponseWriter, r *http.Request, calID, eventID string) {
	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(map[string]any{"items": f.events[calID]})

	case http.MethodPost:
		var ev apiEvent
		json.NewDecoder(r.Body).Decode(&ev)
		f.nextID++
		ev.ID = fmt.Sprintf("ev%d", f.nextID)
		f.events[calID] = append(f.events[calID], ev)
		json.NewEncoder(w).Encode(ev)

	case http.MethodPut:
		var ev apiEvent
		json.NewDecoder(r.Body).Decode(&ev)
		for i, old := range f.events[calID] {
			if old.ID == eventID {
				ev.ID = eventID
				f.events[calID][i] = ev
				json.NewEncoder(w).Encode(ev)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":404,"message":"Not Found"}}`)

	case http.MethodDelete:
		for i, old := range f.events[calID] {
			if old.ID == eventID {
				f.events[calID] = append(f.events[calID][:i], f.events[calID][i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		w.WriteHeader(http.StatusGone)
		fmt.Fprint(w, `{"error":{"code":410,"message":"Resource has been deleted"}}`)
	}
}

func indexOf(parts []string, s string) int {
	for i, p := range parts {
		if p == s {
			return i
		}
	}
	return -1
}

func newTestClient(t *testing.T, f *fakeCalendar) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	cfg := retry.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1}
	c, err := NewClient(context.Background(), srv.Client(), "Europe/London", cfg, option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	return c
}

func TestClient_Calendars(t *testing.T) {
	f := newFake(t)
	f.calendars = []map[string]any{
		{"id": "primary@example.com", "summary": "Me"},
		{"id": "pub", "summary": "Videos (Public)", "description": "Released"},
	}
	c := newTestClient(t, f)

	got, err := c.Calendars(context.Background())
	if err != nil {
		t.Fatalf("Calendars() error = %v", err)
	}
	if len(got) != 2 || got[1].ID != "pub" || got[1].Description != "Released" {
		t.Errorf("Calendars() = %+v", got)
	}
}

func TestClient_Find(t *testing.T) {
	f := newFake(t)
	f.calendars = []map[string]any{
		{"id": "a", "summary": "Work"},
		{"id": "pub", "summary": "Videos (Public)"},
	}
	c := newTestClient(t, f)

	tests := []struct {
		name    string
		want    string
		wantErr error
	}{
		{"Videos (Public)", "pub", nil},
		{"a", "a", nil},
		{"Videos (Scheduled)", "", ErrCalendarNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal, err := c.Find(context.Background(), tt.name)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Find() error = %v, want %v", err, tt.wantErr)
			}
			if cal.ID != tt.want {
				t.Errorf("Find() = %q, want %q", cal.ID, tt.want)
			}
		})
	}
}

func TestClient_Ensure(t *testing.T) {
	f := newFake(t)
	f.calendars = []map[string]any{{"id": "pub", "summary": "Videos (Public)"}}
	c := newTestClient(t, f)
	ctx := context.Background()

	existing, err := c.Ensure(ctx, "Videos (Public)", "ignored")
	if err != nil || existing.ID != "pub" {
		t.Fatalf("Ensure(existing) = %+v, %v", existing, err)
	}

	created, err := c.Ensure(ctx, "Videos (Scheduled)", "Unreleased videos")
	if err != nil {
		t.Fatalf("Ensure(new) error = %v", err)
	}
	if created.ID == "" || created.Summary != "Videos (Scheduled)" || created.TimeZone != "Europe/London" {
		t.Errorf("Ensure(new) = %+v", created)
	}

	again, err := c.Ensure(ctx, "Videos (Scheduled)", "Unreleased videos")
	if err != nil || again.ID != created.ID {
		t.Errorf("Ensure(again) = %+v, %v; want id %q", again, err, created.ID)
	}
}

func TestClient_EventLifecycle(t *testing.T) {
	f := newFake(t)
	c := newTestClient(t, f)
	ctx := context.Background()

	start := time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)
	ev := Event{Summary: "KSP #1", Description: "ID: v1\nDescription: d", Start: start, End: start.Add(20 * time.Minute)}

	created, err := c.Insert(ctx, "pub", ev)
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if created.ID == "" || !created.Same(ev) {
		t.Fatalf("Insert() = %+v, want same as %+v", created, ev)
	}

	created.Summary = "KSP #1 - Liftoff"
	if _, err := c.Update(ctx, "pub", created); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	events, err := c.Events(ctx, "pub")
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 || events[0].Summary != "KSP #1 - Liftoff" || !events[0].Start.Equal(start) {
		t.Fatalf("Events() = %+v", events)
	}

	if err := c.Delete(ctx, "pub", created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := c.Delete(ctx, "pub", created.ID); err != nil {
		t.Errorf("Delete(gone) error = %v, want nil", err)
	}
	if events, _ := c.Events(ctx, "pub"); len(events) != 0 {
		t.Errorf("Events() after delete = %+v", events)
	}
}

func TestClient_EventsSkipsAllDay(t *testing.T) {
	f := newFake(t)
	var allDay, timed apiEvent
	allDay.ID = "d"
	allDay.Start.Date = "2024-05-01"
	allDay.End.Date = "2024-05-02"
	timed.ID = "t"
	timed.Start.DateTime = "2024-05-01T10:00:00+01:00"
	timed.End.DateTime = "2024-05-01T11:00:00+01:00"
	f.events["pub"] = []apiEvent{allDay, timed}
	c := newTestClient(t, f)

	events, err := c.Events(context.Background(), "pub")
	if err != nil {
		t.Fatalf("Events() error = %v", err)
	}
	if len(events) != 1 || events[0].ID != "t" {
		t.Errorf("Events() = %+v, want only the timed event", events)
	}
}

func TestClient_UpdateMissing(t *testing.T) {
	f := newFake(t)
	c := newTestClient(t, f)

	_, err := c.Update(context.Background(), "pub", Event{ID: "nope", Start: time.Now(), End: time.Now()})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Op != "events.update" {
		t.Fatalf("Update() error = %v, want *APIError for events.update", err)
	}
}

func TestEventSame(t *testing.T) {
	start := time.Date(2024, 5, 1, 17, 0, 0, 0, time.UTC)
	a := Event{ID: "1", Summary: "s", Description: "d", Start: start, End: start.Add(time.Minute)}

	b := a
	b.ID = "2"
	b.Start = start.In(time.FixedZone("BST", 3600))
	if !a.Same(b) {
		t.Error("Same() = false for equal details in another zone")
	}

	b.Description = "changed"
	if a.Same(b) {
		t.Error("Same() = true for different descriptions")
	}
}
