package dedup

import (
	"fmt"
	"testing"
)

// BenchmarkTracker_Record benchmarks insertion of unique hashes
func BenchmarkTracker_Record(b *testing.B) {
	tracker := NewTracker()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		hash := fmt.Sprintf("hash-%d", i)
		tracker.Record(hash, "msg")
	}
}

// BenchmarkTracker_Seen benchmarks lookup performance
func BenchmarkTracker_Seen(b *testing.B) {
	tracker := NewTracker()
	for i := 0; i < 1000; i++ {
		tracker.Record(fmt.Sprintf("hash-%d", i), "msg")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tracker.Seen(fmt.Sprintf("hash-%d", i%1000))
	}
}
