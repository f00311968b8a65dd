package storage

import (
	"errors"
	"testing"
)

func TestJSONSerializerRoundTrip(t *testing.T) {
	s := NewJSONSerializer()

	value := map[string]any{"name": "alice", "score": float64(10)}

	data, err := s.Marshal(value)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var out map[string]any
	if err := s.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out["name"] != "alice" || out["score"] != float64(10) {
		t.Fatalf("Round trip mismatch: %v", out)
	}
}

func TestJSONSerializerWrapsErrors(t *testing.T) {
	s := NewJSONSerializer()

	if _, err := s.Marshal(make(chan int)); !errors.Is(err, ErrSerialization) {
		t.Fatalf("Expected ErrSerialization, got %v", err)
	}

	var out map[string]any
	if err := s.Unmarshal([]byte("{not json"), &out); !errors.Is(err, ErrSerialization) {
		t.Fatalf("Expected ErrSerialization, got %v", err)
	}
}

func TestGetSerializer(t *testing.T) {
	if _, err := GetSerializer("json"); err != nil {
		t.Fatalf("json serializer should be available: %v", err)
	}
	if _, err := GetSerializer("xml"); err == nil {
		t.Fatal("Unsupported format should fail")
	}
}
