package models

import (
	"testing"
	"time"
)

func TestProviderEventProcessed(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		event ProviderEvent
		want  bool
	}{
		{name: "never stamped", event: ProviderEvent{}, want: false},
		{name: "stamped clean", event: ProviderEvent{ProcessedAt: &now}, want: true},
		{name: "stamped with handler error", event: ProviderEvent{ProcessedAt: &now, ProcessingError: "upsert user usr_1: persistence failure"}, want: false},
	}

	// A redelivered event whose handler failed must not be swallowed as a
	// duplicate; only a clean stamp makes the redelivery a no-op.
	for _, tt := range tests {
		if got := tt.event.Processed(); got != tt.want {
			t.Fatalf("%s: Processed() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
