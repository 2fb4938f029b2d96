package simkernel

import "testing"

func BenchmarkScheduleAndRun(b *testing.B) {
	q := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Schedule(NewLambdaEvent(func() {}), 1)
		q.Run(1)
	}
}

func BenchmarkTickEventSteadyState(b *testing.B) {
	q := New()
	owner := &countingTickable{}
	q.Schedule(NewTickEvent(owner), 1)
	b.ResetTimer()
	q.Run(uint64(b.N))
}
