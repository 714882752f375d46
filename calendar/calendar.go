// Package calendar is a small Google Calendar v3 client: it lists and
// creates calendars on the authenticated account and manages the events on
// them.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"ytauto/internal/retry"
)

// ErrCalendarNotFound indicates no calendar matches the requested name.
var ErrCalendarNotFound = errors.New("calendar: calendar not found")

// APIError wraps API failures with the operation and calendar involved.
type APIError struct {
	Op       string
	Calendar string
	Err      error
}

func (e *APIError) Error() string {
	if e.Calendar == "" {
		return fmt.Sprintf("calendar: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("calendar: %s %s: %v", e.Op, e.Calendar, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

// Calendar is an entry of the account's calendar list.
type Calendar struct {
	ID          string
	Summary     string
	Description string
	TimeZone    string
}

// Event is a timed event.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Same reports whether e and o carry the same details, ignoring IDs.
func (e Event) Same(o Event) bool {
	return e.Summary == o.Summary &&
		e.Description == o.Description &&
		e.Start.Equal(o.Start) &&
		e.End.Equal(o.End)
}

// Client talks to the Calendar API.
type Client struct {
	service *calendar.Service
	// TimeZone is the IANA zone written on created calendars and events.
	TimeZone    string
	RetryConfig retry.Config
	Logger      *slog.Logger
}

// NewClient creates a client sending requests through httpClient.
func NewClient(ctx context.Context, httpClient *http.Client, timeZone string, cfg retry.Config, opts ...option.ClientOption) (*Client, error) {
	if httpClient != nil {
		opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	}
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	if timeZone == "" {
		timeZone = "UTC"
	}
	return &Client{
		service:     service,
		TimeZone:    timeZone,
		RetryConfig: cfg,
		Logger:      slog.Default().With("component", "calendar"),
	}, nil
}

func (c *Client) do(ctx context.Context, op, calendarID string, fn func(context.Context) error) error {
	if err := retry.Do(ctx, c.RetryConfig, retry.IsGoogleRetryable, fn); err != nil {
		return &APIError{Op: op, Calendar: calendarID, Err: err}
	}
	return nil
}

// Calendars returns every calendar on the account's calendar list.
func (c *Client) Calendars(ctx context.Context) ([]Calendar, error) {
	var out []Calendar
	pageToken := ""
	for {
		err := c.do(ctx, "calendarList.list", "", func(ctx context.Context) error {
			resp, err := c.service.CalendarList.List().PageToken(pageToken).Context(ctx).Do()
			if err != nil {
				return err
			}
			for _, item := range resp.Items {
				out = append(out, Calendar{
					ID:          item.Id,
					Summary:     item.Summary,
					Description: item.Description,
					TimeZone:    item.TimeZone,
				})
			}
			pageToken = resp.NextPageToken
			return nil
		})
		if err != nil {
			return nil, err
		}
		if pageToken == "" {
			return out, nil
		}
	}
}

// Find returns the calendar whose summary or ID is name.
func (c *Client) Find(ctx context.Context, name string) (Calendar, error) {
	calendars, err := c.Calendars(ctx)
	if err != nil {
		return Calendar{}, err
	}
	for _, cal := range calendars {
		if cal.Summary == name || cal.ID == name {
			return cal, nil
		}
	}
	return Calendar{}, fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
}

// Ensure returns the calendar named summary, creating it when missing.
func (c *Client) Ensure(ctx context.Context, summary, description string) (Calendar, error) {
	cal, err := c.Find(ctx, summary)
	if err == nil {
		return cal, nil
	}
	if !errors.Is(err, ErrCalendarNotFound) {
		return Calendar{}, err
	}

	body := &calendar.Calendar{Summary: summary, Description: description, TimeZone: c.TimeZone}
	err = c.do(ctx, "calendars.insert", summary, func(ctx context.Context) error {
		created, err := c.service.Calendars.Insert(body).Context(ctx).Do()
		if err != nil {
			return err
		}
		cal = Calendar{
			ID:          created.Id,
			Summary:     created.Summary,
			Description: created.Description,
			TimeZone:    created.TimeZone,
		}
		return nil
	})
	if err != nil {
		return Calendar{}, err
	}
	c.Logger.Info("created calendar", "summary", summary, "id", cal.ID)
	return cal, nil
}

// Events returns the events on a calendar. Events without a start time
// (all-day events) are skipped.
func (c *Client) Events(ctx context.Context, calendarID string) ([]Event, error) {
	var out []Event
	pageToken := ""
	for {
		err := c.do(ctx, "events.list", calendarID, func(ctx context.Context) error {
			resp, err := c.service.Events.List(calendarID).
				PageToken(pageToken).
				MaxResults(2500).
				Context(ctx).
				Do()
			if err != nil {
				return err
			}
			for _, item := range resp.Items {
				if ev, ok := fromAPI(item); ok {
					out = append(out, ev)
				}
			}
			pageToken = resp.NextPageToken
			return nil
		})
		if err != nil {
			return nil, err
		}
		if pageToken == "" {
			return out, nil
		}
	}
}

// Insert creates ev on a calendar and returns it with its new ID.
func (c *Client) Insert(ctx context.Context, calendarID string, ev Event) (Event, error) {
	var created Event
	err := c.do(ctx, "events.insert", calendarID, func(ctx context.Context) error {
		item, err := c.service.Events.Insert(calendarID, c.toAPI(ev)).Context(ctx).Do()
		if err != nil {
			return err
		}
		created, _ = fromAPI(item)
		return nil
	})
	return created, err
}

// Update replaces the event with ev.ID.
func (c *Client) Update(ctx context.Context, calendarID string, ev Event) (Event, error) {
	var updated Event
	err := c.do(ctx, "events.update", calendarID, func(ctx context.Context) error {
		item, err := c.service.Events.Update(calendarID, ev.ID, c.toAPI(ev)).Context(ctx).Do()
		if err != nil {
			return err
		}
		updated, _ = fromAPI(item)
		return nil
	})
	return updated, err
}

// Delete removes an event. Deleting an event that is already gone
// succeeds.
func (c *Client) Delete(ctx context.Context, calendarID, eventID string) error {
	return c.do(ctx, "events.delete", calendarID, func(ctx context.Context) error {
		err := c.service.Events.Delete(calendarID, eventID).Context(ctx).Do()
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusGone || apiErr.Code == http.StatusNotFound) {
			c.Logger.Debug("event already deleted", "calendar", calendarID, "event", eventID)
			return nil
		}
		return err
	})
}

func (c *Client) toAPI(ev Event) *calendar.Event {
	return &calendar.Event{
		Id:          ev.ID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       &calendar.EventDateTime{DateTime: ev.Start.Format(time.RFC3339), TimeZone: c.TimeZone},
		End:         &calendar.EventDateTime{DateTime: ev.End.Format(time.RFC3339), TimeZone: c.TimeZone},
	}
}

func fromAPI(item *calendar.Event) (Event, bool) {
	if item == nil || item.Start == nil || item.End == nil || item.Start.DateTime == "" {
		return Event{}, false
	}
	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return Event{}, false
	}
	end, err := time.Parse(time.RFC3339, item.End.DateTime)
	if err != nil {
		return Event{}, false
	}
	return Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Start:       start,
		End:         end,
	}, true
}
