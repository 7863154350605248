package core

import (
	"context"
	"fmt"
	"time"

	"github.com/printnet/printnet/internal/config"
	"github.com/printnet/printnet/internal/db"
)

// ConnectionTest is the outcome of probing a printer's connection. Err is set
// only when Success is false.
type ConnectionTest struct {
	Success bool          `json:"success"`
	Status  PrinterStatus `json:"status"`
	Err     error         `json:"-"`
}

// PrinterAdapter abstracts how a printer's live status is queried, independent
// of the underlying connection protocol. Callers bound both operations with a
// context deadline; a timeout surfaces as ErrConnectionFailed.
type PrinterAdapter interface {
	PollStatus(ctx context.Context) (PrinterStatus, error)
	TestConnection(ctx context.Context) ConnectionTest
}

// NewAdapter selects the adapter variant for a printer. Selection is a pure
// function of the printer's interface type and the simulated-environment flag.
func NewAdapter(p *db.Printer, cfg *config.PrintersConfig) (PrinterAdapter, error) {
	switch InterfaceType(p.Interface) {
	case InterfaceLAN:
		if cfg.Simulated {
			return &MockLANClient{printer: p}, nil
		}
		return &LANClient{printer: p}, nil
	case InterfaceOctoPrint:
		if cfg.Simulated {
			return &MockOctoPrintClient{printer: p}, nil
		}
		return &OctoPrintClient{printer: p, apiKey: cfg.OctoPrintAPIKey}, nil
	case InterfaceTroubled:
		return &TroubleClient{printer: p}, nil
	default:
		return nil, fmt.Errorf("%w: unknown printer interface %q", ErrValidation, p.Interface)
	}
}

// LANClient talks to a printer over the local network.
type LANClient struct {
	printer *db.Printer
}

func (c *LANClient) PollStatus(ctx context.Context) (PrinterStatus, error) {
	if err := ctx.Err(); err != nil {
		return StatusDisconnected, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	// TODO: query the device's LAN status endpoint once connection details
	// (address, port) are persisted per printer.
	return StatusIdle, nil
}

func (c *LANClient) TestConnection(ctx context.Context) ConnectionTest {
	status, err := c.PollStatus(ctx)
	if err != nil {
		return ConnectionTest{Success: false, Status: status, Err: err}
	}
	return ConnectionTest{Success: true, Status: status}
}

// OctoPrintClient talks to a printer through its OctoPrint instance.
type OctoPrintClient struct {
	printer *db.Printer
	apiKey  string
}

func (c *OctoPrintClient) PollStatus(ctx context.Context) (PrinterStatus, error) {
	if err := ctx.Err(); err != nil {
		return StatusDisconnected, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	// TODO: GET /api/printer on the configured OctoPrint instance and map its
	// state flags onto PrinterStatus.
	return StatusIdle, nil
}

func (c *OctoPrintClient) TestConnection(ctx context.Context) ConnectionTest {
	status, err := c.PollStatus(ctx)
	if err != nil {
		return ConnectionTest{Success: false, Status: status, Err: err}
	}
	return ConnectionTest{Success: true, Status: status}
}

// MockLANClient simulates a healthy LAN printer for environments without
// hardware.
type MockLANClient struct {
	printer *db.Printer
}

const (
	mockLANDelay       = 1200 * time.Millisecond
	mockOctoPrintDelay = 1500 * time.Millisecond
	troubleDelay       = 2 * time.Second
)

func (c *MockLANClient) PollStatus(ctx context.Context) (PrinterStatus, error) {
	return StatusIdle, nil
}

func (c *MockLANClient) TestConnection(ctx context.Context) ConnectionTest {
	if err := sleepCtx(ctx, mockLANDelay); err != nil {
		return ConnectionTest{Success: false, Status: StatusDisconnected, Err: fmt.Errorf("%w: %v", ErrConnectionFailed, err)}
	}
	return ConnectionTest{Success: true, Status: StatusIdle}
}

// MockOctoPrintClient simulates a healthy OctoPrint-connected printer.
type MockOctoPrintClient struct {
	printer *db.Printer
}

func (c *MockOctoPrintClient) PollStatus(ctx context.Context) (PrinterStatus, error) {
	return StatusIdle, nil
}

func (c *MockOctoPrintClient) TestConnection(ctx context.Context) ConnectionTest {
	if err := sleepCtx(ctx, mockOctoPrintDelay); err != nil {
		return ConnectionTest{Success: false, Status: StatusDisconnected, Err: fmt.Errorf("%w: %v", ErrConnectionFailed, err)}
	}
	return ConnectionTest{Success: true, Status: StatusIdle}
}

// TroubleClient always fails. It exists to exercise the failure paths of the
// registry and its callers.
type TroubleClient struct {
	printer *db.Printer
}

func (c *TroubleClient) PollStatus(ctx context.Context) (PrinterStatus, error) {
	return StatusError, nil
}

func (c *TroubleClient) TestConnection(ctx context.Context) ConnectionTest {
	if err := sleepCtx(ctx, troubleDelay); err != nil {
		return ConnectionTest{Success: false, Status: StatusError, Err: fmt.Errorf("%w: %v", ErrConnectionFailed, err)}
	}
	return ConnectionTest{
		Success: false,
		Status:  StatusError,
		Err:     fmt.Errorf("%w: simulated connection failure", ErrConnectionFailed),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
