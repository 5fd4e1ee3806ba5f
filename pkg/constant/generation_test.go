package constant

import (
	"fmt"
	"strings"
	"testing"
)

func TestIsTerminalStatus(t *testing.T) {
	terminal := []string{StatusCompleted, StatusFailed, StatusCancelled}

	for _, status := range terminal {
		if !IsTerminalStatus(status) {
			t.Errorf("expected %s to be terminal", status)
		}
	}

	for _, status := range []string{StatusQueued, StatusRunning, "unknown"} {
		if IsTerminalStatus(status) {
			t.Errorf("expected %s not to be terminal", status)
		}
	}
}

func TestValidStatusTransition(t *testing.T) {
	validTransitions := []struct {
		from string
		to   string
	}{
		{StatusQueued, StatusRunning},
		{StatusQueued, StatusCompleted},
		{StatusQueued, StatusFailed},
		{StatusQueued, StatusCancelled},
		{StatusRunning, StatusCompleted},
		{StatusRunning, StatusFailed},
		{StatusRunning, StatusCancelled},
	}

	for _, tt := range validTransitions {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if !ValidStatusTransition(tt.from, tt.to) {
				t.Errorf("expected %s -> %s to be valid", tt.from, tt.to)
			}
		})
	}

	invalidTransitions := []struct {
		from string
		to   string
	}{
		{StatusCompleted, StatusRunning},
		{StatusCompleted, StatusFailed},
		{StatusFailed, StatusCompleted},
		{StatusCancelled, StatusRunning},
		{StatusRunning, StatusQueued},
	}

	for _, tt := range invalidTransitions {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if ValidStatusTransition(tt.from, tt.to) {
				t.Errorf("expected %s -> %s to be invalid", tt.from, tt.to)
			}
		})
	}
}

func TestAssertValidStatusCode_InvalidCode_Panics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Error("Expected panic for invalid status code")
		}

		panicMsg := fmt.Sprintf("%v", r)
		if !strings.Contains(panicMsg, "unknown generation status code") {
			t.Errorf("Expected panic about unknown status code, got: %v", r)
		}
	}()

	AssertValidStatusCode("INVALID_STATUS")
}

func TestAssertValidStatusTransition_Terminal_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for transition out of a terminal state")
		}
	}()

	AssertValidStatusTransition(StatusCompleted, StatusRunning)
}

func TestValidDepositTransition(t *testing.T) {
	valid := []struct{ from, to string }{
		{DepositSeen, DepositConfirmed},
		{DepositSeen, DepositRejected},
		{DepositConfirmed, DepositCredited},
		{DepositConfirmed, DepositRejected},
	}

	for _, tt := range valid {
		if !ValidDepositTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be valid", tt.from, tt.to)
		}
	}

	invalid := []struct{ from, to string }{
		{DepositCredited, DepositRejected},
		{DepositRejected, DepositConfirmed},
		{DepositSeen, DepositCredited},
	}

	for _, tt := range invalid {
		if ValidDepositTransition(tt.from, tt.to) {
			t.Errorf("expected %s -> %s to be invalid", tt.from, tt.to)
		}
	}
}
