package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/zealfabric/datarecording"
	"github.com/sarchlab/zealfabric/dma"
	"github.com/sarchlab/zealfabric/machine"
	"github.com/sarchlab/zealfabric/sim"
	"github.com/sarchlab/zealfabric/tracing"
)

var (
	dmaLoads  []string
	dmaDesc   string
	dmaDumps  []string
	dmaRecord string
	dmaTrace  bool
)

var dmaCmd = &cobra.Command{
	Use:   "dma",
	Short: "Run a DMA descriptor chain.",
	Long: "`dma --load chain.bin@0x80000 --desc 0x80000 --dump 0x90000:64` " +
		"loads images into the physical memory, points the DMA engine at " +
		"the first descriptor, starts it and dumps memory afterwards.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		job, err := parseDMAJob()
		if err != nil {
			return err
		}

		var idGen sim.IDGenerator
		if job.record != "" {
			idGen = sim.NewXIDGenerator()
		}

		m, err := buildMachine(idGen)
		if err != nil {
			return err
		}

		return job.run(m, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddCommand(dmaCmd)

	flags := dmaCmd.Flags()
	flags.StringArrayVar(&dmaLoads, "load", nil,
		"file@addr, copy a file into the physical memory (repeatable)")
	flags.StringVar(&dmaDesc, "desc", "",
		"physical address of the first descriptor")
	flags.StringArrayVar(&dmaDumps, "dump", nil,
		"addr:len, hex dump memory after the transfer (repeatable)")
	flags.StringVar(&dmaRecord, "record", "",
		"record the transfer into an SQLite file, overrides "+
			"the record path of the configuration")
	flags.BoolVar(&dmaTrace, "trace", false, "print every descriptor")
	_ = dmaCmd.MarkFlagRequired("desc")
}

var newRecorder = datarecording.New

type dmaJob struct {
	loads  []loadArg
	desc   uint32
	dumps  []dumpArg
	record string
	trace  bool
}

func parseDMAJob() (dmaJob, error) {
	job := dmaJob{
		record: cfg.Record.Path,
		trace:  dmaTrace,
	}

	if dmaRecord != "" {
		job.record = dmaRecord
	}

	var err error

	job.desc, err = parseAddr(dmaDesc)
	if err != nil {
		return job, err
	}

	for _, s := range dmaLoads {
		l, err := parseLoad(s)
		if err != nil {
			return job, err
		}

		job.loads = append(job.loads, l)
	}

	for _, s := range dmaDumps {
		d, err := parseDump(s)
		if err != nil {
			return job, err
		}

		job.dumps = append(job.dumps, d)
	}

	return job, nil
}

func (j dmaJob) run(m *machine.Machine, out, errOut io.Writer) (err error) {
	for _, l := range j.loads {
		data, err := os.ReadFile(l.File)
		if err != nil {
			return fmt.Errorf("loading %s: %w", l.File, err)
		}

		m.WritePhysBytes(l.Addr, data)
		logger.Printf("loaded %d bytes from %s at 0x%06X",
			len(data), l.File, l.Addr)
	}

	engine := m.DMA()

	if j.trace {
		engine.AcceptHook(dma.NewLogHook(log.New(errOut, "", 0), verbose))
	}

	if j.record != "" {
		recorder, recErr := newRecorder(j.record)
		if recErr != nil {
			return recErr
		}

		defer func() {
			if closeErr := recorder.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("closing recording %s: %w", j.record, closeErr)
			}
		}()

		tracing.CollectTrace(engine,
			tracing.NewDBTracer(sim.NewWallClock(), recorder))
	}

	isTransfer := func(t tracing.Task) bool {
		return t.What == "transfer"
	}
	steps := tracing.NewStepCountTracer(isTransfer)
	tracing.CollectTrace(engine, steps)
	elapsed := tracing.NewTotalTimeTracer(sim.NewWallClock(), isTransfer)
	tracing.CollectTrace(engine, elapsed)

	startTransfer(m.CPUBus(), engine.BasePort(), j.desc)

	fmt.Fprintf(out, "%d descriptor(s), pointer now 0x%06X\n",
		steps.GetStepCount("descriptor"), engine.DescAddr())
	fmt.Fprintf(out, "%d transfer(s) in %.6fs\n",
		elapsed.TaskCount(), float64(elapsed.TotalTime()))

	for _, d := range j.dumps {
		fmt.Fprintf(out, "0x%06X:\n", d.Addr)
		fmt.Fprint(out, hex.Dump(m.ReadPhysBytes(d.Addr, d.Length)))
	}

	return nil
}

// startTransfer programs the descriptor pointer and sets the start bit, the
// way a program running on the CPU would.
func startTransfer(bus machine.CPUBus, base uint8, desc uint32) {
	bus.Out(base+dma.RegDescAddr0, uint8(desc))
	bus.Out(base+dma.RegDescAddr1, uint8(desc>>8))
	bus.Out(base+dma.RegDescAddr2, uint8(desc>>16))
	bus.Out(base+dma.RegCtrl, dma.CtrlStart)
}
