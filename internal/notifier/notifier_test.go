package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"FlightSentinel/internal/model"
)

var samplePick = model.Pick{
	Destination:     "LIS",
	Key:             "LIS-4",
	Price:           149.5,
	Currency:        "EUR",
	DurationMinutes: 165,
	Stops:           0,
	Airline:         "TP",
	Score:           0.81,
}

func TestFormatDuration(t *testing.T) {
	tests := map[int]string{0: "n/a", 45: "45m", 120: "2h", 330: "5h 30m"}
	for in, want := range tests {
		if got := FormatDuration(in); got != want {
			t.Errorf("%d: expected %q, got %q", in, want, got)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	if got := FormatPrice(149.5, "EUR"); got != "149.50 EUR" {
		t.Errorf("unexpected price: %q", got)
	}
	if got := FormatPrice(90, ""); got != "90.00" {
		t.Errorf("unexpected price: %q", got)
	}
}

func TestFormatDigestEmail_CarriesDisplayFields(t *testing.T) {
	sub := model.Subscriber{Email: "ana@example.com", UnsubscribeToken: "tok-1"}
	msg := FormatDigestEmail("DUB", samplePick, sub, "https://deals.example/unsubscribe")
	if len(msg.Recipients) != 1 || msg.Recipients[0] != "ana@example.com" {
		t.Fatalf("unexpected recipients: %v", msg.Recipients)
	}
	for _, want := range []string{"149.50 EUR", "2h 45m", "non-stop", "TP", "81/100", "DUB -> LIS", "https://deals.example/unsubscribe?token=tok-1"} {
		if !strings.Contains(msg.Body, want) {
			t.Errorf("body missing %q:\n%s", want, msg.Body)
		}
	}
	if !strings.Contains(msg.Subject, "LIS") {
		t.Errorf("subject missing destination: %q", msg.Subject)
	}
}

func TestFormatExplore_MarksOutliers(t *testing.T) {
	picks := []model.Pick{samplePick, {Destination: "IST", Price: 99, Currency: "EUR", DurationMinutes: 900, Stops: 2, Outlier: "extra stops"}}
	out := FormatExplore("DUB", picks)
	if !strings.Contains(out, "1. LIS") || !strings.Contains(out, "2. IST") || !strings.Contains(out, "⚠️ extra stops") {
		t.Errorf("unexpected explore output:\n%s", out)
	}
	if !strings.Contains(FormatExplore("DUB", nil), "No offers found") {
		t.Errorf("expected empty explore message")
	}
}

func TestFormatSavedSearchAlert(t *testing.T) {
	ss := model.SavedSearch{
		OwnerEmail:    "bo@example.com",
		Params:        model.SearchParams{Origin: "DUB", Destination: "LIS", DepartDate: "2026-12-01", ReturnDate: "2026-12-08"},
		LastSentPrice: 180,
	}
	msg := FormatSavedSearchAlert(ss, samplePick)
	if msg.Recipients[0] != "bo@example.com" {
		t.Errorf("unexpected recipient %v", msg.Recipients)
	}
	if !strings.Contains(msg.Body, "Previously: 180.00 EUR") || !strings.Contains(msg.Body, "return 2026-12-08") {
		t.Errorf("unexpected body:\n%s", msg.Body)
	}
}

func TestSMTPMailer_SendsPerRecipient(t *testing.T) {
	var sent []string
	m := NewSMTPMailer("smtp.example", 587, "", "", "deals@example.com")
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if addr != "smtp.example:587" || from != "deals@example.com" || a != nil {
			t.Errorf("unexpected envelope: %s %s %v", addr, from, a)
		}
		sent = append(sent, to[0])
		if !strings.Contains(string(msg), "Subject: hello") {
			t.Errorf("missing subject header")
		}
		return nil
	}
	if err := m.SendMessage(Message{Subject: "hello", Body: "b", Recipients: []string{"a@x", "b@x"}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(sent) != 2 {
		t.Errorf("expected 2 sends, got %v", sent)
	}

	boom := errors.New("relay down")
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return boom }
	if err := m.SendMessage(Message{Recipients: []string{"a@x"}}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped relay error, got %v", err)
	}
	if err := NewSMTPMailer("", 25, "", "", "").SendMessage(Message{Recipients: []string{"a@x"}}); err == nil {
		t.Errorf("expected configuration error")
	}
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/botTOKEN/sendMessage") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["chat_id"] != "42" || payload["parse_mode"] != "HTML" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	tn.Backoff = time.Millisecond
	if err := tn.SendWithRetry(context.Background(), FormatDealPost("DUB", samplePick), 2); err != nil {
		t.Fatalf("send with retry: %v", err)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 attempts, got %d", calls)
	}
}
