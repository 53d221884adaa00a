// internal/app/clients/stagesvc/stagesvc.go

// Package stagesvc holds the HTTP clients for the sibling stage services
// (Screening, Loan, ACAT) that own the per-member application records.
//
// Upstream failures are classified into error kinds at this boundary, so
// callers switch on Err.Kind instead of matching message text.
package stagesvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind classifies an upstream stage-service failure.
type Kind string

const (
	// KindNoApplication means the member has no application record upstream.
	KindNoApplication Kind = "no_application"
	// KindApplicationInProgress means the member already has an open
	// application for the requested stage.
	KindApplicationInProgress Kind = "application_in_progress"
	// KindNoPriorScreening means the member was never screened.
	KindNoPriorScreening Kind = "no_prior_screening"
	// KindScreeningInProgress means the member's own screening is open.
	KindScreeningInProgress Kind = "screening_in_progress"
	// KindLoanInProgress means the member's own loan application is open.
	KindLoanInProgress Kind = "loan_in_progress"
	// KindUnavailable covers transport failures and unclassified upstream
	// errors.
	KindUnavailable Kind = "unavailable"
)

// Err is a classified upstream failure.
type Err struct {
	Kind    Kind
	Service string
	Message string
}

func (e *Err) Error() string {
	return fmt.Sprintf("%s service: %s", e.Service, e.Message)
}

// Application is the upstream view of one member's stage application.
type Application struct {
	ID     primitive.ObjectID `json:"_id"`
	Client primitive.ObjectID `json:"client"`
	Status string             `json:"status"`
}

// Config carries the settings shared by the three clients.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Headers are forwarded on every request, carrying the caller's
	// authorization through to the sibling service.
	Headers http.Header
}

type client struct {
	name    string
	baseURL string
	http    *http.Client
	headers http.Header
}

func newClient(name string, cfg Config) client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return client{
		name:    name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		headers: cfg.Headers,
	}
}

// upstreamError is the envelope sibling services use for failures.
type upstreamError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &Err{Kind: KindUnavailable, Service: c.name, Message: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &Err{Kind: KindUnavailable, Service: c.name, Message: err.Error()}
	}
	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return &Err{Kind: KindUnavailable, Service: c.name, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Err{Kind: KindUnavailable, Service: c.name, Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		return c.classify(raw, resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Err{Kind: KindUnavailable, Service: c.name, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return nil
}

// classify turns an upstream error body into a kinded error. The sibling
// services report failures as prose, so the message recognition happens
// here, once, and nowhere else.
func (c *client) classify(raw []byte, code int) error {
	var env upstreamError
	_ = json.Unmarshal(raw, &env)
	msg := env.Error.Message
	if msg == "" {
		msg = fmt.Sprintf("unexpected status %d", code)
	}

	kind := KindUnavailable
	switch {
	case strings.Contains(msg, "No Loan Application"),
		strings.Contains(msg, "Has No Screening"):
		kind = KindNoApplication
	case strings.Contains(msg, "Not Screening Form Yet"),
		strings.Contains(msg, "Not Screening Application Yet"):
		kind = KindNoPriorScreening
	case strings.Contains(msg, "Screening in progress"):
		kind = KindScreeningInProgress
	case strings.Contains(msg, "Loan in progress"):
		kind = KindLoanInProgress
	case strings.Contains(msg, "in progress"):
		kind = KindApplicationInProgress
	}
	return &Err{Kind: kind, Service: c.name, Message: msg}
}

// Screening is the client for the screening service.
type Screening struct {
	c client
}

// NewScreening builds a screening-service client.
func NewScreening(cfg Config) *Screening {
	return &Screening{c: newClient("screening", cfg)}
}

type createScreeningRequest struct {
	Client    primitive.ObjectID `json:"client"`
	Screening primitive.ObjectID `json:"screening,omitempty"`
	ForGroup  bool               `json:"for_group"`
}

// CreateScreening creates a screening application for a member. Prior, when
// set, references the member's previous cycle's screening so the upstream
// service can seed answers from it.
func (s *Screening) CreateScreening(ctx context.Context, clientID, prior primitive.ObjectID) (*Application, error) {
	var app Application
	err := s.c.post(ctx, "/screenings/create", createScreeningRequest{
		Client:    clientID,
		Screening: prior,
		ForGroup:  true,
	}, &app)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// Loan is the client for the loan service.
type Loan struct {
	c client
}

// NewLoan builds a loan-service client.
func NewLoan(cfg Config) *Loan {
	return &Loan{c: newClient("loan", cfg)}
}

type createLoanRequest struct {
	Client   primitive.ObjectID `json:"client"`
	ForGroup bool               `json:"for_group"`
}

// CreateApplication creates a loan application for a member.
func (l *Loan) CreateApplication(ctx context.Context, clientID primitive.ObjectID) (*Application, error) {
	var app Application
	err := l.c.post(ctx, "/loans/create", createLoanRequest{Client: clientID, ForGroup: true}, &app)
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// ACAT is the client for the ACAT appraisal service.
type ACAT struct {
	c client
}

// NewACAT builds an ACAT-service client.
func NewACAT(cfg Config) *ACAT {
	return &ACAT{c: newClient("acat", cfg)}
}

// MemberACATRequest initializes a member's ACAT appraisal, listing the crop
// appraisals it covers.
type MemberACATRequest struct {
	Client primitive.ObjectID   `json:"client"`
	Crops  []primitive.ObjectID `json:"crop_acats,omitempty"`
}

// InitializeClientACAT creates a member-level ACAT record upstream.
func (a *ACAT) InitializeClientACAT(ctx context.Context, req MemberACATRequest) (*Application, error) {
	var app Application
	if err := a.c.post(ctx, "/acat/clients/initialize", req, &app); err != nil {
		return nil, err
	}
	return &app, nil
}
