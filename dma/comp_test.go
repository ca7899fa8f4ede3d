package dma

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/zealfabric/addrspace"
	"github.com/sarchlab/zealfabric/device"
	"github.com/sarchlab/zealfabric/mem"
	"github.com/sarchlab/zealfabric/sim"
	"github.com/sarchlab/zealfabric/tracing"
)

const base = DefaultBasePort

func programDescAddr(c *Comp, addr uint32) {
	c.Write(uint32(base+RegDescAddr0), uint8(addr))
	c.Write(uint32(base+RegDescAddr1), uint8(addr>>8))
	c.Write(uint32(base+RegDescAddr2), uint8(addr>>16))
}

func start(c *Comp) {
	c.Write(uint32(base+RegCtrl), CtrlStart)
}

func expectDescriptorFetch(
	phys *MockPhysicalAccess,
	addr uint32,
	d Descriptor,
) *gomock.Call {
	return phys.EXPECT().
		ReadPhysBytes(addr, gomock.Any()).
		Do(func(_ uint32, buf []byte) {
			copy(buf, d.Encode())
		})
}

var _ = Describe("DMA", func() {
	var (
		mockCtrl *gomock.Controller
		phys     *MockPhysicalAccess
		dma      *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		phys = NewMockPhysicalAccess(mockCtrl)
		dma = MakeBuilder().
			WithPhysicalAccess(phys).
			Build("DMA")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should panic if built without physical access", func() {
		Expect(func() { MakeBuilder().Build("DMA") }).To(Panic())
	})

	It("should panic if the registers do not fit in the I/O space", func() {
		Expect(func() {
			MakeBuilder().WithPhysicalAccess(phys).WithBasePort(0xFC).Build("DMA")
		}).To(Panic())
	})

	It("should split the descriptor pointer in little-endian bytes", func() {
		dma.Write(uint32(base+RegDescAddr0), 0x12)
		dma.Write(uint32(base+RegDescAddr1), 0x34)
		dma.Write(uint32(base+RegDescAddr2), 0xAB)

		Expect(dma.DescAddr()).To(Equal(uint32(0xAB3412)))
		Expect(dma.Read(uint32(base + RegDescAddr0))).To(Equal(uint8(0x12)))
		Expect(dma.Read(uint32(base + RegDescAddr1))).To(Equal(uint8(0x34)))
		Expect(dma.Read(uint32(base + RegDescAddr2))).To(Equal(uint8(0xAB)))
	})

	It("should only replace the written byte of the pointer", func() {
		programDescAddr(dma, 0xAB3412)

		dma.Write(uint32(base+RegDescAddr1), 0x00)

		Expect(dma.DescAddr()).To(Equal(uint32(0xAB0012)))
	})

	It("should read the raw clock divider", func() {
		Expect(dma.Read(uint32(base + RegClkDiv))).To(Equal(uint8(0x11)))

		dma.Write(uint32(base+RegClkDiv), 0x3C)

		Expect(dma.Clock()).To(Equal(ClockDivider(0x3C)))
		Expect(dma.Clock().ReadCycle()).To(Equal(uint8(0xC)))
		Expect(dma.Clock().WriteCycle()).To(Equal(uint8(0x3)))
	})

	It("should read 0 from the control register and unknown ports", func() {
		Expect(dma.Read(uint32(base + RegCtrl))).To(Equal(uint8(0)))
		Expect(dma.Read(uint32(base + NumRegisters))).To(Equal(uint8(0)))
		Expect(dma.Read(0x00)).To(Equal(uint8(0)))
	})

	It("should ignore writes to unknown ports", func() {
		dma.Write(uint32(base+NumRegisters), 0xFF)
		dma.Write(0x00, 0xFF)

		Expect(dma.DescAddr()).To(Equal(uint32(0)))
		Expect(dma.Clock()).To(Equal(InitClock))
	})

	It("should not start without the start bit", func() {
		dma.Write(uint32(base+RegCtrl), 0xFE)
	})

	It("should keep the pointer on reset but not the clock", func() {
		Expect(dma.Clock().ReadCycle()).To(Equal(uint8(1)))
		Expect(dma.Clock().WriteCycle()).To(Equal(uint8(1)))
		Expect(dma.DescAddr()).To(Equal(uint32(0)))

		programDescAddr(dma, 0x123450)
		dma.Reset()

		Expect(dma.Clock().ReadCycle()).To(Equal(uint8(6)))
		Expect(dma.Clock().WriteCycle()).To(Equal(uint8(5)))
		Expect(dma.DescAddr()).To(Equal(uint32(0x123450)))

		dma.Init()

		Expect(dma.Clock()).To(Equal(InitClock))
		Expect(dma.DescAddr()).To(Equal(uint32(0)))
	})

	It("should run a zero-length last descriptor without copying", func() {
		programDescAddr(dma, 0x000200)
		expectDescriptorFetch(phys, 0x000200, Descriptor{
			ReadAddr:  0x1000,
			WriteAddr: 0x2000,
			Flags:     Flags{Last: true},
		})

		start(dma)

		Expect(dma.DescAddr()).To(Equal(uint32(0x000210)))
	})

	It("should step the two addresses independently", func() {
		programDescAddr(dma, 0x000100)
		d := Descriptor{
			ReadAddr:  0x001000,
			WriteAddr: 0x002000,
			Length:    4,
			Flags: Flags{
				ReadStep:  StepFixed,
				WriteStep: StepIncrement,
				Last:      true,
			},
		}

		gomock.InOrder(
			expectDescriptorFetch(phys, 0x000100, d),
			phys.EXPECT().ReadPhys(uint32(0x001000)).Return(uint8(0x42)),
			phys.EXPECT().WritePhys(uint32(0x002000), uint8(0x42)),
			phys.EXPECT().ReadPhys(uint32(0x001000)).Return(uint8(0x43)),
			phys.EXPECT().WritePhys(uint32(0x002001), uint8(0x43)),
			phys.EXPECT().ReadPhys(uint32(0x001000)).Return(uint8(0x44)),
			phys.EXPECT().WritePhys(uint32(0x002002), uint8(0x44)),
			phys.EXPECT().ReadPhys(uint32(0x001000)).Return(uint8(0x45)),
			phys.EXPECT().WritePhys(uint32(0x002003), uint8(0x45)),
		)

		start(dma)
	})

	It("should wrap addresses around 24 bits", func() {
		programDescAddr(dma, 0x000100)
		d := Descriptor{
			ReadAddr:  0xFFFFFF,
			WriteAddr: 0x000000,
			Length:    2,
			Flags: Flags{
				ReadStep:  StepIncrement,
				WriteStep: StepDecrement,
				Last:      true,
			},
		}

		gomock.InOrder(
			expectDescriptorFetch(phys, 0x000100, d),
			phys.EXPECT().ReadPhys(uint32(0xFFFFFF)).Return(uint8(1)),
			phys.EXPECT().WritePhys(uint32(0x000000), uint8(1)),
			phys.EXPECT().ReadPhys(uint32(0x000000)).Return(uint8(2)),
			phys.EXPECT().WritePhys(uint32(0xFFFFFF), uint8(2)),
		)

		start(dma)
	})

	It("should wrap the descriptor pointer around 24 bits", func() {
		programDescAddr(dma, 0xFFFFF0)
		gomock.InOrder(
			expectDescriptorFetch(phys, 0xFFFFF0, Descriptor{}),
			expectDescriptorFetch(phys, 0x000000, Descriptor{
				Flags: Flags{Last: true},
			}),
		)

		start(dma)

		Expect(dma.DescAddr()).To(Equal(uint32(0x000010)))
	})

	Context("with hooks", func() {
		var hook *MockHook

		BeforeEach(func() {
			hook = NewMockHook(mockCtrl)
			dma.AcceptHook(hook)
		})

		It("should report descriptors and bytes", func() {
			programDescAddr(dma, 0x000100)
			d := Descriptor{
				ReadAddr:  0x001000,
				WriteAddr: 0x002000,
				Length:    1,
				Flags:     Flags{Last: true},
			}

			expectDescriptorFetch(phys, 0x000100, d)
			phys.EXPECT().ReadPhys(uint32(0x001000)).Return(uint8(0x99))
			phys.EXPECT().WritePhys(uint32(0x002000), uint8(0x99))

			var positions []*sim.HookPos
			hook.EXPECT().Func(gomock.Any()).Do(func(ctx sim.HookCtx) {
				positions = append(positions, ctx.Pos)

				switch ctx.Pos {
				case HookPosDescriptor:
					Expect(ctx.Item).To(Equal(DescriptorEvent{
						Addr: 0x000100, Descriptor: d,
					}))
				case HookPosByteMoved:
					Expect(ctx.Item).To(Equal(ByteMove{
						From: 0x001000, To: 0x002000, Data: 0x99,
					}))
				}
			}).AnyTimes()

			start(dma)

			Expect(positions).To(Equal([]*sim.HookPos{
				tracing.HookPosTaskStart,
				tracing.HookPosTaskStep,
				tracing.HookPosTaskStart,
				HookPosDescriptor,
				HookPosByteMoved,
				tracing.HookPosTaskEnd,
				tracing.HookPosTaskEnd,
			}))
		})
	})
})

var _ = Describe("DMA over an address space", func() {
	var (
		space *addrspace.Map
		dma   *Comp
	)

	writeMem := func(addr uint32, data []byte) {
		for i, b := range data {
			space.WritePhys(addr+uint32(i), b)
		}
	}

	readMem := func(addr uint32, n int) []byte {
		buf := make([]byte, n)
		space.ReadPhysBytes(addr, buf)

		return buf
	}

	BeforeEach(func() {
		registry := device.NewRegistry()
		ram := device.NewRAM("RAM", mem.MemSpaceSize)

		idx, err := registry.Register(ram)
		Expect(err).NotTo(HaveOccurred())

		space = addrspace.NewMap(registry)
		Expect(space.BindMemory(idx, 0, mem.MemSpaceSize)).To(Succeed())

		dma = MakeBuilder().WithPhysicalAccess(space).Build("DMA")
	})

	It("should copy a single descriptor", func() {
		src := []byte{1, 2, 3, 4, 5, 6, 7, 8}
		writeMem(0x1000, src)
		writeMem(0x0100, Descriptor{
			ReadAddr:  0x1000,
			WriteAddr: 0x2000,
			Length:    uint16(len(src)),
			Flags:     Flags{Last: true},
		}.Encode())

		programDescAddr(dma, 0x0100)
		start(dma)

		Expect(readMem(0x2000, len(src))).To(Equal(src))
		Expect(readMem(0x2000+uint32(len(src)), 1)).To(Equal([]byte{0}))
		Expect(dma.DescAddr()).To(Equal(uint32(0x0110)))
	})

	It("should walk a chain until the last descriptor", func() {
		writeMem(0x1000, []byte{0xA, 0xB, 0xC, 0xD})
		writeMem(0x3000, []byte{0x1, 0x2, 0x3, 0x4})
		writeMem(0x0100, Descriptor{
			ReadAddr: 0x1000, WriteAddr: 0x2000, Length: 4,
		}.Encode())
		writeMem(0x0110, Descriptor{
			ReadAddr: 0x3000, WriteAddr: 0x4000, Length: 4,
			Flags: Flags{Last: true},
		}.Encode())
		writeMem(0x0120, Descriptor{
			ReadAddr: 0x1000, WriteAddr: 0x5000, Length: 4,
			Flags: Flags{Last: true},
		}.Encode())

		tracer := tracing.NewStepCountTracer(func(tracing.Task) bool {
			return true
		})
		tracing.CollectTrace(dma, tracer)

		programDescAddr(dma, 0x0100)
		start(dma)

		Expect(readMem(0x2000, 4)).To(Equal([]byte{0xA, 0xB, 0xC, 0xD}))
		Expect(readMem(0x4000, 4)).To(Equal([]byte{0x1, 0x2, 0x3, 0x4}))
		Expect(readMem(0x5000, 4)).To(Equal([]byte{0, 0, 0, 0}))
		Expect(dma.DescAddr()).To(Equal(uint32(0x0120)))
		Expect(tracer.GetStepCount("descriptor")).To(Equal(uint64(2)))
	})

	It("should fill memory with a fixed source", func() {
		writeMem(0x1000, []byte{0x55})
		writeMem(0x0100, Descriptor{
			ReadAddr: 0x1000, WriteAddr: 0x2000, Length: 16,
			Flags: Flags{ReadStep: StepFixed, Last: true},
		}.Encode())

		programDescAddr(dma, 0x0100)
		start(dma)

		Expect(readMem(0x2000, 16)).To(Equal(bytes.Repeat([]byte{0x55}, 16)))
	})

	It("should copy backwards with decrementing addresses", func() {
		writeMem(0x1000, []byte{1, 2, 3, 4})
		writeMem(0x0100, Descriptor{
			ReadAddr: 0x1003, WriteAddr: 0x2000, Length: 4,
			Flags: Flags{
				ReadStep:  StepDecrement,
				WriteStep: StepIncrement,
				Last:      true,
			},
		}.Encode())

		programDescAddr(dma, 0x0100)
		start(dma)

		Expect(readMem(0x2000, 4)).To(Equal([]byte{4, 3, 2, 1}))
	})

	It("should log descriptors", func() {
		buf := new(bytes.Buffer)
		dma.AcceptHook(NewLogHook(log.New(buf, "", 0), true))

		writeMem(0x1000, []byte{0x77})
		writeMem(0x0100, Descriptor{
			ReadAddr: 0x1000, WriteAddr: 0x2000, Length: 1,
			Flags: Flags{Last: true},
		}.Encode())

		programDescAddr(dma, 0x0100)
		start(dma)

		Expect(buf.String()).To(ContainSubstring(
			"DMA: descriptor @ 0x000100: rd=0x001000(INC) wr=0x002000(INC) len=1 last=true"))
		Expect(buf.String()).To(ContainSubstring(
			"DMA: transfer src=0x001000 dst=0x002000 byte=0x77"))
	})
})
