package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GoogleInserter inserts events through the Google Calendar v3 API.
type GoogleInserter struct {
	svc *gcal.Service
}

// NewGoogleInserter authenticates every call with accessToken as a bearer token.
// The base HTTP client may be supplied through ctx under oauth2.HTTPClient.
func NewGoogleInserter(ctx context.Context, accessToken string, opts ...option.ClientOption) (*GoogleInserter, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	client := oauth2.NewClient(ctx, ts)
	all := append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	svc, err := gcal.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("%w: new calendar service: %v", ErrProviderUnavailable, err)
	}
	return &GoogleInserter{svc: svc}, nil
}

// GoogleInserterFactory returns an InserterFactory that builds a GoogleInserter per token.
func GoogleInserterFactory(opts ...option.ClientOption) InserterFactory {
	return func(ctx context.Context, accessToken string) (EventInserter, error) {
		return NewGoogleInserter(ctx, accessToken, opts...)
	}
}

func (g *GoogleInserter) InsertEvent(ctx context.Context, calendarID string, ev *gcal.Event) (*gcal.Event, error) {
	created, err := g.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
	if err != nil {
		return nil, classifyGoogleError(err)
	}
	return created, nil
}

func classifyGoogleError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusUnauthorized {
			return fmt.Errorf("%w: %s", ErrReauthRequired, gerr.Message)
		}
		return fmt.Errorf("%w: status %d: %s", ErrProviderRejected, gerr.Code, gerr.Message)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
}
