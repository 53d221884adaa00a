// internal/app/clients/stagesvc/stagesvc_test.go
package stagesvc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func upstreamFailure(code int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": message},
		})
	}
}

func TestCreateScreeningForwardsHeadersAndBody(t *testing.T) {
	clientID := primitive.NewObjectID()
	prior := primitive.NewObjectID()
	appID := primitive.NewObjectID()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/screenings/create" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q, want forwarded token", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["client"] != clientID.Hex() || body["screening"] != prior.Hex() || body["for_group"] != true {
			t.Errorf("unexpected body %v", body)
		}
		_ = json.NewEncoder(w).Encode(Application{ID: appID, Client: clientID, Status: "new"})
	}))
	defer srv.Close()

	headers := http.Header{}
	headers.Set("Authorization", "Bearer token-1")
	svc := NewScreening(Config{BaseURL: srv.URL, Headers: headers})

	app, err := svc.CreateScreening(context.Background(), clientID, prior)
	if err != nil {
		t.Fatalf("CreateScreening: %v", err)
	}
	if app.ID != appID || app.Client != clientID || app.Status != "new" {
		t.Errorf("unexpected application %+v", app)
	}
}

func TestClassifyUpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Kind
	}{
		{"no loan application", "Client Has No Loan Application!", KindNoApplication},
		{"never screened", "Client Has Not Screening Form Yet!", KindNoPriorScreening},
		{"screening open", "Client Has A Screening in progress", KindScreeningInProgress},
		{"loan open", "Client Has A Loan in progress", KindLoanInProgress},
		{"acat open", "Client has an ACAT application in progress", KindApplicationInProgress},
		{"unknown prose", "something else went wrong", KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(upstreamFailure(http.StatusBadRequest, tt.message))
			defer srv.Close()

			svc := NewLoan(Config{BaseURL: srv.URL})
			_, err := svc.CreateApplication(context.Background(), primitive.NewObjectID())

			var uerr *Err
			if !errors.As(err, &uerr) {
				t.Fatalf("expected *Err, got %T (%v)", err, err)
			}
			if uerr.Kind != tt.want {
				t.Errorf("kind = %s, want %s", uerr.Kind, tt.want)
			}
			if uerr.Message != tt.message {
				t.Errorf("message = %q, want the upstream prose verbatim", uerr.Message)
			}
			if uerr.Service != "loan" {
				t.Errorf("service = %q, want loan", uerr.Service)
			}
		})
	}
}

func TestClassifyEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewACAT(Config{BaseURL: srv.URL})
	_, err := svc.InitializeClientACAT(context.Background(), MemberACATRequest{Client: primitive.NewObjectID()})

	var uerr *Err
	if !errors.As(err, &uerr) {
		t.Fatalf("expected *Err, got %T", err)
	}
	if uerr.Kind != KindUnavailable {
		t.Errorf("kind = %s, want %s", uerr.Kind, KindUnavailable)
	}
	if uerr.Message != "unexpected status 502" {
		t.Errorf("message = %q", uerr.Message)
	}
}

func TestUnreachableService(t *testing.T) {
	svc := NewLoan(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := svc.CreateApplication(context.Background(), primitive.NewObjectID())

	var uerr *Err
	if !errors.As(err, &uerr) {
		t.Fatalf("expected *Err, got %T", err)
	}
	if uerr.Kind != KindUnavailable {
		t.Errorf("kind = %s, want %s", uerr.Kind, KindUnavailable)
	}
}
