package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"

	"github.com/maildeck/maildeck/internal/core/domain"
	"github.com/maildeck/maildeck/internal/observability/logging"
)

// cannedBody maps a validated request to the documented response shape.
func cannedBody(method, path string) string {
	switch method + " " + path {
	case "GET /api/auth/me":
		return `{"user":{"id":"u-1","email":"dana@example.com","name":"Dana"}}`
	case "POST /api/auth/google":
		return `{"auth_url":"https://accounts.google.com/o/oauth2/auth?state=s-1"}`
	case "POST /api/auth/logout":
		return `{"message":"Logged out"}`
	case "POST /api/auth/refresh":
		return `{"access_token":"tok-2","token_type":"bearer"}`
	case "GET /api/emails/":
		return `{"emails":[{"id":"m-1","thread_id":"t-1","subject":"Invoice","from":"a@b.c","to":"d@e.f","body":"<p>hello</p>","labels":["INBOX"],"date":"1700000000000","is_unread":true}],"total":1,"offset":0,"limit":50}`
	case "GET /api/emails/labels":
		return `{"labels":[{"id":"INBOX","name":"INBOX","type":"system"}]}`
	case "GET /api/emails/m-1":
		return `{"id":"m-1","subject":"Invoice","date":"1700000000000"}`
	case "GET /api/emails/m-1/thread":
		return `{"messages":[{"id":"m-1","date":"1700000000000"},{"id":"m-2","date":"1700000300000"}]}`
	case "POST /api/emails/m-1/generate-response":
		return `{"content":"Thanks, I am on it."}`
	case "POST /api/emails/m-1/reply":
		return `{"message":"Reply sent","response_id":"r-1"}`
	case "GET /api/settings/ingestion-status":
		return `{"status":"in_progress"}`
	case "GET /api/settings/ingest-toggle":
		return `{"enabled":true,"message":"Automatic ingestion is on"}`
	case "POST /api/settings/ingest-toggle":
		return `{"enabled":true,"message":"Ingestion started"}`
	case "GET /api/documents/":
		return `{"documents":[{"id":"doc-1","filename":"notes.pdf","content_type":"application/pdf","status":"ready","created_at":"2024-04-01T10:30:00Z"}],"total":1,"offset":0,"limit":50}`
	case "DELETE /api/documents/doc-1":
		return `{"message":"Document deleted"}`
	case "GET /health":
		return `{"status":"healthy","services":{"gmail":"connected","vector_store":"connected"}}`
	}
	return ""
}

// TestClientMatchesBackendContract replays every consumed operation
// against a server that validates requests and responses with the
// OpenAPI document in testdata.
func TestClientMatchesBackendContract(t *testing.T) {
	ctx := context.Background()
	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromFile("testdata/openapi.yaml")
	if err != nil {
		t.Fatalf("load contract: %v", err)
	}
	if err := doc.Validate(ctx); err != nil {
		t.Fatalf("contract document invalid: %v", err)
	}

	var router routers.Router
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := r.Clone(r.Context())
		req.URL.Scheme = "http"
		req.URL.Host = r.Host

		route, pathParams, err := router.FindRoute(req)
		if err != nil {
			t.Errorf("%s %s: not in contract: %v", r.Method, r.URL.Path, err)
			http.Error(w, err.Error(), http.StatusNotImplemented)
			return
		}
		reqInput := &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		}
		if err := openapi3filter.ValidateRequest(r.Context(), reqInput); err != nil {
			t.Errorf("%s %s: request violates contract: %v", r.Method, r.URL.Path, err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if route.Operation != nil && route.Operation.OperationID == "downloadDocument" {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("raw document bytes"))
			return
		}

		body := cannedBody(r.Method, r.URL.Path)
		if body == "" {
			t.Errorf("%s %s: no canned response", r.Method, r.URL.Path)
			http.Error(w, "no canned response", http.StatusNotImplemented)
			return
		}
		respInput := &openapi3filter.ResponseValidationInput{
			RequestValidationInput: reqInput,
			Status:                 http.StatusOK,
			Header:                 http.Header{"Content-Type": []string{"application/json"}},
		}
		respInput.SetBodyBytes([]byte(body))
		if err := openapi3filter.ValidateResponse(r.Context(), respInput); err != nil {
			t.Errorf("%s %s: canned response violates contract: %v", r.Method, r.URL.Path, err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})

	srv := httptest.NewServer(handler)
	defer srv.Close()

	doc.Servers = openapi3.Servers{&openapi3.Server{URL: srv.URL}}
	router, err = gorillamux.NewRouter(doc)
	if err != nil {
		t.Fatalf("build contract router: %v", err)
	}

	client, err := New(Options{BaseURL: srv.URL + "/api", Logger: logging.Discard("contract")})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, _, err := client.Me(ctx); err != nil {
		t.Errorf("Me() error = %v", err)
	}
	if _, err := client.GoogleAuthURL(ctx); err != nil {
		t.Errorf("GoogleAuthURL() error = %v", err)
	}
	if err := client.Logout(ctx); err != nil {
		t.Errorf("Logout() error = %v", err)
	}
	if _, err := client.Refresh(ctx); err != nil {
		t.Errorf("Refresh() error = %v", err)
	}
	filter := domain.EmailFilter{UnreadOnly: true, Search: "invoice", Label: "INBOX", Limit: 50}
	if _, err := client.ListEmails(ctx, filter); err != nil {
		t.Errorf("ListEmails() error = %v", err)
	}
	if _, err := client.GetEmail(ctx, "m-1"); err != nil {
		t.Errorf("GetEmail() error = %v", err)
	}
	if _, err := client.Thread(ctx, "m-1"); err != nil {
		t.Errorf("Thread() error = %v", err)
	}
	if _, err := client.Labels(ctx); err != nil {
		t.Errorf("Labels() error = %v", err)
	}
	if _, err := client.GenerateResponse(ctx, "m-1"); err != nil {
		t.Errorf("GenerateResponse() error = %v", err)
	}
	if _, err := client.Reply(ctx, "m-1", "Sounds good.", true); err != nil {
		t.Errorf("Reply() error = %v", err)
	}
	if _, err := client.IngestionStatus(ctx); err != nil {
		t.Errorf("IngestionStatus() error = %v", err)
	}
	if _, err := client.ToggleState(ctx); err != nil {
		t.Errorf("ToggleState() error = %v", err)
	}
	if _, err := client.SetToggle(ctx, true); err != nil {
		t.Errorf("SetToggle() error = %v", err)
	}
	if _, err := client.ListDocuments(ctx, 50, 0); err != nil {
		t.Errorf("ListDocuments() error = %v", err)
	}
	if err := client.DeleteDocument(ctx, "doc-1"); err != nil {
		t.Errorf("DeleteDocument() error = %v", err)
	}
	if body, err := client.Download(ctx, "doc-1"); err != nil {
		t.Errorf("Download() error = %v", err)
	} else {
		_, _ = io.Copy(io.Discard, body)
		body.Close()
	}
	if _, err := client.Health(ctx); err != nil {
		t.Errorf("Health() error = %v", err)
	}
}
