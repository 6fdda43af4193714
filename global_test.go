package loggate

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

func TestGlobal_NotConfigured(t *testing.T) {
	Reset()

	ctx := context.Background()
	funcs := map[string]func() error{
		"Info":           func() error { _, err := Info(ctx, Payload{"msg": "x"}); return err },
		"Warning":        func() error { _, err := Warning(ctx, Payload{"msg": "x"}); return err },
		"Error":          func() error { _, err := Error(ctx, Payload{"msg": "x"}); return err },
		"Debug":          func() error { _, err := Debug(ctx, Payload{"msg": "x"}); return err },
		"Batch":          func() error { _, err := Batch(ctx, []Payload{{"level": "info", "msg": "x"}}); return err },
		"TestConnection": func() error { _, err := TestConnection(ctx); return err },
	}
	for name, call := range funcs {
		if err := call(); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("%s: got %v, want ErrNotConfigured", name, err)
		}
	}
}

func TestGlobal_ConfigureAndForward(t *testing.T) {
	var cap capture
	srv := newCaptureServer(t, http.StatusCreated, `{"success":true,"ingested":1}`, &cap)
	defer srv.Close()
	t.Cleanup(Reset)

	if _, err := Configure(Config{Endpoint: srv.URL, AppID: "global-app"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	resp, err := Info(context.Background(), Payload{"msg": "x"})
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if !resp.Success {
		t.Errorf("got %+v, want success", resp)
	}
	if got := cap.headers.Get("X-App-Id"); got != "global-app" {
		t.Errorf("X-App-Id = %q", got)
	}
}

func TestGlobal_LastConfigureWins(t *testing.T) {
	var capA, capB capture
	srvA := newCaptureServer(t, http.StatusCreated, `{"success":true,"ingested":1}`, &capA)
	defer srvA.Close()
	srvB := newCaptureServer(t, http.StatusCreated, `{"success":true,"ingested":1}`, &capB)
	defer srvB.Close()
	t.Cleanup(Reset)

	if _, err := Configure(Config{Endpoint: srvA.URL, AppID: "first"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if _, err := Configure(Config{Endpoint: srvB.URL, AppID: "second"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if _, err := Info(context.Background(), Payload{"msg": "x"}); err != nil {
		t.Fatalf("Info: %v", err)
	}
	if capA.body != nil {
		t.Errorf("replaced client still received a request")
	}
	if got := capB.headers.Get("X-App-Id"); got != "second" {
		t.Errorf("X-App-Id = %q, want the last-configured identity", got)
	}
}

func TestGlobal_InvalidConfigLeavesSlotUntouched(t *testing.T) {
	var cap capture
	srv := newCaptureServer(t, http.StatusCreated, `{"success":true,"ingested":1}`, &cap)
	defer srv.Close()
	t.Cleanup(Reset)

	if _, err := Configure(Config{Endpoint: srv.URL, AppID: "app"}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if _, err := Configure(Config{}); err == nil {
		t.Fatal("Configure with empty config should fail")
	}
	if _, err := Info(context.Background(), Payload{"msg": "x"}); err != nil {
		t.Errorf("previously registered client should still work: %v", err)
	}
}
