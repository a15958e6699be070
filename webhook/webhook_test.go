package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Ar7340/CS2-Player-States/models"
)

func TestDeliverSignsPayload(t *testing.T) {
	var gotSig string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-CS2Stats-Signature")
		gotBody, _ = io.ReadAll(r.Body)
	}))
	defer srv.Close()

	event := NewRunEvent(&models.RunReport{Processed: 3, Succeeded: 2, Failed: 1, Completed: true})
	if err := NewNotifier(srv.URL, "topsecret").Deliver(context.Background(), event); err != nil {
		t.Fatalf("Deliver: %v", err)
	}

	mac := hmac.New(sha256.New, []byte("topsecret"))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if gotSig != want {
		t.Errorf("signature = %q, want %q", gotSig, want)
	}

	body := string(gotBody)
	if !strings.Contains(body, `"type":"run.completed"`) {
		t.Errorf("body missing event type: %s", body)
	}
	if !strings.Contains(body, `"processed":3`) {
		t.Errorf("body missing report: %s", body)
	}
}

func TestDeliverOmitsSignatureWithoutSecret(t *testing.T) {
	var gotSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-CS2Stats-Signature")
	}))
	defer srv.Close()

	event := NewRunEvent(&models.RunReport{Completed: false})
	if err := NewNotifier(srv.URL, "").Deliver(context.Background(), event); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if gotSig != "" {
		t.Errorf("unexpected signature %q", gotSig)
	}
	if event.Type != EventRunStopped {
		t.Errorf("event type = %q, want %q", event.Type, EventRunStopped)
	}
}

func TestDeliverReportsEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewNotifier(srv.URL, "").Deliver(context.Background(), NewRunEvent(&models.RunReport{Completed: true}))
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !strings.Contains(err.Error(), "502") {
		t.Errorf("error should carry the status code: %v", err)
	}
}
