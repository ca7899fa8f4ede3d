package dma

import (
	"log"

	"github.com/sarchlab/zealfabric/sim"
)

// LogHook prints the descriptors fetched by an engine. It also prints every
// byte moved if Verbose is set.
type LogHook struct {
	sim.LogHookBase

	Verbose bool
}

// NewLogHook creates a LogHook that writes to logger.
func NewLogHook(logger *log.Logger, verbose bool) *LogHook {
	h := new(LogHook)
	h.Logger = logger
	h.Verbose = verbose

	return h
}

// Func writes a line for the hook position it is invoked at.
func (h *LogHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosDescriptor:
		ev := ctx.Item.(DescriptorEvent)
		h.Printf("%s: descriptor @ 0x%06X: %s",
			ctx.Domain.(sim.Named).Name(), ev.Addr, ev.Descriptor)
	case HookPosByteMoved:
		if !h.Verbose {
			return
		}

		mv := ctx.Item.(ByteMove)
		h.Printf("%s: transfer src=0x%06X dst=0x%06X byte=0x%02X",
			ctx.Domain.(sim.Named).Name(), mv.From, mv.To, mv.Data)
	}
}
