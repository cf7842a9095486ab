package commands

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mamadbah2/viberbot/internal/domain/models"
	"github.com/mamadbah2/viberbot/pkg/clients/viber"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/errs"
	"github.com/mamadbah2/viberbot/pkg/clients/viber/events"
)

type fakeViber struct {
	onlineIDs []string
	whoisID   string
	err       error
}

func (f *fakeViber) GetAccountInfo(context.Context) (viber.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return viber.Response{
		"id":                "pa:75346594275468546724",
		"name":              "account name",
		"subscribers_count": json.Number("35"),
		"webhook":           "https://my.site.com",
	}, nil
}

func (f *fakeViber) GetOnline(_ context.Context, ids []string) ([]viber.OnlineStatus, error) {
	f.onlineIDs = ids
	if f.err != nil {
		return nil, f.err
	}
	return []viber.OnlineStatus{
		{ID: ids[0], OnlineStatus: 0, OnlineStatusMessage: "online"},
		{ID: "other=", OnlineStatus: 1, OnlineStatusMessage: "offline", LastOnline: 1457764197627},
	}, nil
}

func (f *fakeViber) GetUserDetails(_ context.Context, userID string) (*viber.UserDetails, error) {
	f.whoisID = userID
	if f.err != nil {
		return nil, f.err
	}
	return &viber.UserDetails{
		UserProfile: events.UserProfile{ID: userID, Name: "John McClane", Country: "UK", Language: "en"},
		DeviceType:  "iPhone9,4",
	}, nil
}

type fakeBroadcaster struct {
	text string
	err  error
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, text string) ([]string, error) {
	f.text = text
	return []string{"1", "2"}, f.err
}

type fakeSubscribers []models.Subscriber

func (f fakeSubscribers) ListActiveSubscribers(context.Context) ([]models.Subscriber, error) {
	return f, nil
}

type fakeReporting struct {
	start, end time.Time
}

func (f *fakeReporting) DeliveryReport(_ context.Context, start, end time.Time) (models.DeliveryReport, error) {
	f.start, f.end = start, end
	return models.DeliveryReport{PeriodStart: start, PeriodEnd: end, Sent: 4, Delivered: 2, DeliveryRate: 50}, nil
}

type fixture struct {
	viber       *fakeViber
	broadcaster *fakeBroadcaster
	reporting   *fakeReporting
	svc         *Service
}

func newFixture(subscribers fakeSubscribers) fixture {
	f := fixture{viber: &fakeViber{}, broadcaster: &fakeBroadcaster{}, reporting: &fakeReporting{}}
	f.svc = NewService(f.viber, f.broadcaster, subscribers, f.reporting, nil)
	f.svc.now = func() time.Time { return time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC) }
	return f
}

func TestHandleCommandReplies(t *testing.T) {
	t.Parallel()

	subscribers := fakeSubscribers{{ID: "a=", Name: "Ann"}, {ID: "b="}}

	tests := []struct {
		input string
		want  []string
	}{
		{"/info", []string{"Account account name (pa:75346594275468546724), 35 subscribers", "Webhook: https://my.site.com"}},
		{"/online a= other=", []string{"a=: online", "other=: offline (last online 2016-03-12T06:29:57Z)"}},
		{"/whois 01234567890A=", []string{"John McClane (01234567890A=)", "country: UK", "device: iPhone9,4"}},
		{"/broadcast Hello All", []string{"Broadcast sent in 2 message(s)."}},
		{"/subscribers", []string{"2 active subscriber(s).", "Ann - a=", "(no name) - b="}},
		{"/report", []string{"Delivery report (2024-03-04-2024-03-11): 4 sent, 2 delivered (50.00%)"}},
		{"/help", []string{"Commands:", "/whois <id> - Show the profile"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()

			f := newFixture(subscribers)
			reply, err := f.svc.HandleCommand(context.Background(), models.ParseCommand(tc.input), "admin=")
			if err != nil {
				t.Fatalf("HandleCommand() error = %v", err)
			}
			for _, want := range tc.want {
				if !strings.Contains(reply, want) {
					t.Errorf("reply %q does not contain %q", reply, want)
				}
			}
		})
	}
}

func TestHandleCommandForwardsArguments(t *testing.T) {
	t.Parallel()

	f := newFixture(nil)
	ctx := context.Background()

	if _, err := f.svc.HandleCommand(ctx, models.ParseCommand("/broadcast  Mixed Case   text"), "admin="); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if f.broadcaster.text != "Mixed Case   text" {
		t.Errorf("broadcast text = %q", f.broadcaster.text)
	}

	if _, err := f.svc.HandleCommand(ctx, models.ParseCommand("/whois X="), "admin="); err != nil {
		t.Fatalf("whois: %v", err)
	}
	if f.viber.whoisID != "X=" {
		t.Errorf("whois id = %q", f.viber.whoisID)
	}

	if _, err := f.svc.HandleCommand(ctx, models.ParseCommand("/report"), "admin="); err != nil {
		t.Fatalf("report: %v", err)
	}
	if got := f.reporting.end.Sub(f.reporting.start); got != reportWindow {
		t.Errorf("report window = %s", got)
	}
}

func TestHandleCommandErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"unknown", "/dance", ErrUnsupportedCommand},
		{"whois without id", "/whois", ErrInvalidArguments},
		{"whois with two ids", "/whois a= b=", ErrInvalidArguments},
		{"online without ids", "/online", ErrInvalidArguments},
		{"online with too many ids", "/online " + strings.Repeat("x= ", maxOnlineIDs+1), ErrInvalidArguments},
		{"empty broadcast", "/broadcast   ", ErrInvalidArguments},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(nil)
			_, err := f.svc.HandleCommand(context.Background(), models.ParseCommand(tc.input), "admin=")
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("HandleCommand() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestHandleCommandPropagatesPlatformErrors(t *testing.T) {
	t.Parallel()

	f := newFixture(nil)
	f.viber.err = errs.NewRequestError(2, "invalidAuthToken")

	_, err := f.svc.HandleCommand(context.Background(), models.ParseCommand("/info"), "admin=")
	if errs.Code(err) != errs.CodeRequest {
		t.Errorf("HandleCommand() error = %v", err)
	}
}

func TestListSubscribersTruncates(t *testing.T) {
	t.Parallel()

	subscribers := make(fakeSubscribers, maxListedSubscribers+5)
	for i := range subscribers {
		subscribers[i] = models.Subscriber{ID: "id=", Name: "name"}
	}

	reply, err := newFixture(subscribers).svc.HandleCommand(context.Background(), models.ParseCommand("/subscribers"), "admin=")
	if err != nil {
		t.Fatalf("HandleCommand() error = %v", err)
	}
	if !strings.HasSuffix(reply, "... and 5 more") {
		t.Errorf("reply = %q", reply)
	}
}
