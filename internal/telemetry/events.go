package telemetry

import (
	"context"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

// ContactForm is the part of a contact submission worth reporting. The
// message body is never sent.
type ContactForm struct {
	Name    string
	Email   string
	Company string
	Service string
	Message string
}

type DemoRequest struct {
	Name          string
	Email         string
	Company       string
	Service       string
	PreferredDate string
}

func (c *Client) TrackPageView(path, title string) {
	if path != "" {
		c.setPath(path)
	}
	var md map[string]any
	if title != "" {
		md = map[string]any{"title": title}
	}
	c.TrackEvent(domain.EventPageView, path, md)
}

func (c *Client) TrackContactSubmission(f ContactForm) {
	c.TrackEvent(domain.EventContactSubmission, "", map[string]any{
		"name":       f.Name,
		"email":      f.Email,
		"company":    f.Company,
		"service":    f.Service,
		"hasMessage": f.Message != "",
	})
}

func (c *Client) TrackSubscription(email, source string) {
	c.TrackEvent(domain.EventSubscription, "", map[string]any{
		"email":  email,
		"source": source,
	})
}

func (c *Client) TrackDemoRequest(d DemoRequest) {
	c.TrackEvent(domain.EventDemoRequest, "", map[string]any{
		"name":          d.Name,
		"email":         d.Email,
		"company":       d.Company,
		"service":       d.Service,
		"preferredDate": d.PreferredDate,
	})
}

func (c *Client) TrackCampaignOpen(campaignID, email string) {
	c.TrackEvent(domain.EventCampaignOpen, "", map[string]any{
		"campaignId": campaignID,
		"email":      email,
	})
}

func (c *Client) TrackCampaignClick(campaignID, email, url string) {
	c.TrackEvent(domain.EventCampaignClick, "", map[string]any{
		"campaignId": campaignID,
		"email":      email,
		"url":        url,
	})
}

// OnLogin reports a login. Together with OnLogout it lets a Client observe a
// session guard.
func (c *Client) OnLogin(_ context.Context, user domain.User) {
	c.Identify(user.ID)
	c.TrackEvent(domain.EventLogin, "", map[string]any{
		"userId":   user.ID,
		"username": user.Username,
		"role":     string(user.Role),
	})
}

func (c *Client) OnLogout(_ context.Context, user domain.User) {
	c.TrackEvent(domain.EventLogout, "", map[string]any{
		"userId": user.ID,
	})
	c.Identify("")
}
