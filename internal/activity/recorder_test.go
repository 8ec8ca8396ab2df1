package activity

import "testing"

func TestNoopRecorderCloses(t *testing.T) {
	var r Recorder = Noop{}

	r.Record("resolve", "https://example.com via US")
	if err := r.Close(); err != nil {
		t.Fatalf("Close() = %v, want nil", err)
	}
}

func TestNewRedisRecorderRejectsInvalidURL(t *testing.T) {
	if _, err := NewRedisRecorder("://not-a-url"); err == nil {
		t.Fatal("expected error for invalid redis URL")
	}
}
