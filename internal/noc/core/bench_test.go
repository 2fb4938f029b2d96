package core

import (
	"testing"

	"github.com/chisuhua/gem5sc-go/internal/noc/packet"
	"github.com/chisuhua/gem5sc-go/pkg/simkernel"
)

func BenchmarkVCEnqueueDequeue(b *testing.B) {
	vc := NewVirtualChannel(64, 0)
	pkt := packet.New(packet.ReqRead, 0, 0, 1, 1, make([]byte, 64))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vc.Enqueue(pkt)
		vc.Pop()
	}
}

func BenchmarkCreditPoolTryGetReturn(b *testing.B) {
	p := NewCreditPool(1 << 20)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.TryGet(uint64(i % 8))
		p.ReturnCredit(uint64(i % 8))
	}
}

func BenchmarkDownstreamPortDirectHandoff(b *testing.B) {
	eq := simkernel.New()
	producer := NewModuleBase("producer", eq)
	down, _ := producer.Ports().AddDownstreamPort(producer, []int{1 << 16}, []int{0}, 0, eq, "")
	sink := &recorder{ModuleBase: NewModuleBase("sink", eq)}
	up, _ := sink.Ports().AddUpstreamPort(sink, []int{1 << 16}, []int{0}, "")
	Bind(down, up)

	pkt := packet.New(packet.ReqRead, 0, 0, 1, 1, nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		down.Send(pkt)
		eq.Run(1)
	}
}
