package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// EventRequest describes an interview event to create on the HR calendar.
type EventRequest struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
	Timezone    string
}

// EventResult carries the ids a caller needs to reference the event later.
type EventResult struct {
	EventID  string
	HTMLLink string
	MeetLink string
}

// Service creates events on the primary calendar of the HR OAuth identity.
type Service struct {
	clientID     string
	clientSecret string
	accessToken  string
	refreshToken string
}

func NewService(clientID, clientSecret, accessToken, refreshToken string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

func (s *Service) calendarService(ctx context.Context) (*calendar.Service, error) {
	token := &oauth2.Token{
		AccessToken:  s.accessToken,
		RefreshToken: s.refreshToken,
		TokenType:    "Bearer",
	}
	if s.refreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	client := oauth2.NewClient(ctx, config.TokenSource(ctx, token))
	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Calendar service: %v", err)
	}
	return srv, nil
}

// CreateEventWithMeet creates a calendar event with a Google Meet link and
// invites all attendees.
func (s *Service) CreateEventWithMeet(ctx context.Context, req EventRequest) (EventResult, error) {
	srv, err := s.calendarService(ctx)
	if err != nil {
		return EventResult{}, err
	}

	tz := req.Timezone
	if tz == "" {
		tz = "UTC"
	}

	attendees := make([]*calendar.EventAttendee, 0, len(req.Attendees))
	for _, email := range req.Attendees {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}

	event := &calendar.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start: &calendar.EventDateTime{
			DateTime: req.Start.Format(time.RFC3339),
			TimeZone: tz,
		},
		End: &calendar.EventDateTime{
			DateTime: req.End.Format(time.RFC3339),
			TimeZone: tz,
		},
		Attendees: attendees,
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: fmt.Sprintf("meet-%d", time.Now().UnixNano()),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		},
	}

	created, err := srv.Events.Insert("primary", event).
		ConferenceDataVersion(1).
		SendUpdates("all").
		Do()
	if err != nil {
		return EventResult{}, fmt.Errorf("unable to create calendar event: %v", err)
	}

	result := EventResult{EventID: created.Id, HTMLLink: created.HtmlLink}
	if created.ConferenceData != nil {
		for _, ep := range created.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				result.MeetLink = ep.Uri
				break
			}
		}
	}
	return result, nil
}
