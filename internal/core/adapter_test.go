package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/printnet/printnet/internal/config"
	"github.com/printnet/printnet/internal/db"
)

func TestNewAdapterSelection(t *testing.T) {
	tests := []struct {
		iface     string
		simulated bool
		want      string
	}{
		{"LAN", false, "*core.LANClient"},
		{"LAN", true, "*core.MockLANClient"},
		{"OCTOPRINT", false, "*core.OctoPrintClient"},
		{"OCTOPRINT", true, "*core.MockOctoPrintClient"},
		{"TROUBLED", false, "*core.TroubleClient"},
		{"TROUBLED", true, "*core.TroubleClient"},
	}

	for _, tt := range tests {
		printer := &db.Printer{Interface: tt.iface}
		cfg := &config.PrintersConfig{Simulated: tt.simulated}

		adapter, err := NewAdapter(printer, cfg)
		if err != nil {
			t.Fatalf("%s simulated=%v: %v", tt.iface, tt.simulated, err)
		}

		var got string
		switch adapter.(type) {
		case *LANClient:
			got = "*core.LANClient"
		case *MockLANClient:
			got = "*core.MockLANClient"
		case *OctoPrintClient:
			got = "*core.OctoPrintClient"
		case *MockOctoPrintClient:
			got = "*core.MockOctoPrintClient"
		case *TroubleClient:
			got = "*core.TroubleClient"
		}
		if got != tt.want {
			t.Errorf("%s simulated=%v: got %s, want %s", tt.iface, tt.simulated, got, tt.want)
		}
	}
}

func TestNewAdapterUnknownInterface(t *testing.T) {
	_, err := NewAdapter(&db.Printer{Interface: "SERIAL"}, &config.PrintersConfig{})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestTroubleClientAlwaysFails(t *testing.T) {
	client := &TroubleClient{printer: &db.Printer{Interface: "TROUBLED"}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result := client.TestConnection(ctx)
	if result.Success {
		t.Error("trouble client reported success")
	}
	if result.Status != StatusError {
		t.Errorf("status = %s, want ERROR", result.Status)
	}
	if result.Err == nil {
		t.Fatal("failure must carry a cause")
	}
	if !errors.Is(result.Err, ErrConnectionFailed) {
		t.Errorf("err = %v, want ErrConnectionFailed", result.Err)
	}
}

func TestMockClientHonorsDeadline(t *testing.T) {
	client := &MockLANClient{printer: &db.Printer{Interface: "LAN"}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	result := client.TestConnection(ctx)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("test connection ignored deadline, took %v", elapsed)
	}
	if result.Success {
		t.Error("expired context should fail the probe")
	}
	if !errors.Is(result.Err, ErrConnectionFailed) {
		t.Errorf("err = %v, want ErrConnectionFailed", result.Err)
	}
}

func TestMockClientSucceedsWithinDeadline(t *testing.T) {
	client := &MockOctoPrintClient{printer: &db.Printer{Interface: "OCTOPRINT"}}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result := client.TestConnection(ctx)
	if !result.Success {
		t.Errorf("probe failed: %v", result.Err)
	}
	if result.Status != StatusIdle {
		t.Errorf("status = %s, want IDLE", result.Status)
	}
}
