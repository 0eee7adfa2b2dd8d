// Package whatsapp is a thin client for the WhatsApp Cloud API messages
// endpoint.
package whatsapp

import (
	"errors"
	"strings"
)

// SendMessageRequest is one outbound message. Exactly one of Text or
// Template is used; a non-nil Template wins.
type SendMessageRequest struct {
	PhoneNumberID string
	AccessToken   string
	To            string
	Text          string
	Template      *Template
}

// Template names an approved message template. BodyParameters fill the body
// placeholders in order.
type Template struct {
	Name           string
	Language       string
	BodyParameters []string
}

func (r SendMessageRequest) validate() error {
	switch {
	case strings.TrimSpace(r.PhoneNumberID) == "":
		return errors.New("whatsapp: phone number id required")
	case strings.TrimSpace(r.AccessToken) == "":
		return errors.New("whatsapp: access token required")
	case strings.TrimSpace(r.To) == "":
		return errors.New("whatsapp: recipient required")
	case r.Template != nil && strings.TrimSpace(r.Template.Name) == "":
		return errors.New("whatsapp: template name required")
	case r.Template == nil && r.Text == "":
		return errors.New("whatsapp: message text required")
	}
	return nil
}

type messagePayload struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             *textPayload     `json:"text,omitempty"`
	Template         *templatePayload `json:"template,omitempty"`
}

type textPayload struct {
	Body string `json:"body"`
}

type templatePayload struct {
	Name       string             `json:"name"`
	Language   languagePayload    `json:"language"`
	Components []componentPayload `json:"components,omitempty"`
}

type languagePayload struct {
	Code string `json:"code"`
}

type componentPayload struct {
	Type       string             `json:"type"`
	Parameters []parameterPayload `json:"parameters"`
}

type parameterPayload struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (r SendMessageRequest) payload() messagePayload {
	p := messagePayload{MessagingProduct: "whatsapp", To: r.To}
	if r.Template == nil {
		p.Type = "text"
		p.Text = &textPayload{Body: r.Text}
		return p
	}
	p.Type = "template"
	tmpl := &templatePayload{
		Name:     r.Template.Name,
		Language: languagePayload{Code: r.Template.Language},
	}
	if len(r.Template.BodyParameters) > 0 {
		params := make([]parameterPayload, 0, len(r.Template.BodyParameters))
		for _, v := range r.Template.BodyParameters {
			params = append(params, parameterPayload{Type: "text", Text: v})
		}
		tmpl.Components = []componentPayload{{Type: "body", Parameters: params}}
	}
	p.Template = tmpl
	return p
}

// MessageResponse is the Cloud API acknowledgement.
type MessageResponse struct {
	MessagingProduct string `json:"messaging_product"`
	Contacts         []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// MessageID returns the provider message id, or "" when none was returned.
func (r *MessageResponse) MessageID() string {
	if r == nil || len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}
