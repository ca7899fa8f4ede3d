// Package monitoring turns a machine into an HTTP server, so that its
// devices, memory and DMA engine can be inspected while it runs.
package monitoring

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/zealfabric/addrspace"
	"github.com/sarchlab/zealfabric/device"
	"github.com/sarchlab/zealfabric/machine"
	"github.com/sarchlab/zealfabric/monitoring/web"
	"github.com/sarchlab/zealfabric/sim"
	"github.com/sarchlab/zealfabric/tracing"
)

// MaxDumpLength bounds the number of bytes a memory request can read.
const MaxDumpLength = 4096

// Monitor serves a machine over HTTP. The machine is not safe for concurrent
// use, so every access goes through the monitor lock, including the ones
// made by the owner of the machine with Do.
type Monitor struct {
	mu      sync.Mutex
	machine *machine.Machine

	portNumber int
	server     *http.Server

	idGen            sim.IDGenerator
	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor(m *machine.Machine) *Monitor {
	monitor := &Monitor{
		machine: m,
		idGen:   sim.NewSequentialIDGenerator(),
	}

	tracing.CollectTrace(m.DMA(), &progressTracer{monitor: monitor})

	return monitor
}

// WithPortNumber sets the port number of the monitor. Port 0 picks a free
// port.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// Do runs f with exclusive access to the machine.
func (m *Monitor) Do(f func(mach *machine.Machine)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f(m.machine)
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        m.idGen.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the handler of the monitoring API and pages.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_components", m.listComponents).Methods(http.MethodGet)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails).
		Methods(http.MethodGet)
	r.HandleFunc("/api/field/{json}", m.listFieldValue).Methods(http.MethodGet)
	r.HandleFunc("/api/map", m.listRegions).Methods(http.MethodGet)
	r.HandleFunc("/api/mem/{addr}/{len}", m.readMemory).Methods(http.MethodGet)
	r.HandleFunc("/api/io/{port}", m.readPort).Methods(http.MethodGet)
	r.HandleFunc("/api/io/{port}/{value}", m.writePort).Methods(http.MethodPost)
	r.HandleFunc("/api/dma", m.dmaState).Methods(http.MethodGet)
	r.HandleFunc("/api/reset", m.reset).Methods(http.MethodPost)
	r.HandleFunc("/api/progress", m.listProgressBars).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts serving in the background and returns the URL of the
// monitor.
func (m *Monitor) StartServer() (string, error) {
	listener, err := net.Listen("tcp", ":"+strconv.Itoa(m.portNumber))
	if err != nil {
		return "", fmt.Errorf("starting monitor: %w", err)
	}

	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring machine with %s\n", url)

	go func() {
		err := m.server.Serve(listener)
		if !errors.Is(err, http.ErrServerClosed) {
			dieOnErr(err)
		}
	}()

	return url, nil
}

// StopServer gracefully stops the server.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) listComponents(w http.ResponseWriter, _ *http.Request) {
	names := []string{}

	m.Do(func(mach *machine.Machine) {
		for _, d := range mach.Registry().Devices() {
			names = append(names, d.Name())
		}
	})

	writeJSON(w, names)
}

func (m *Monitor) listComponentDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	m.mu.Lock()
	defer m.mu.Unlock()

	component := m.findComponentOr404(w, name)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type fieldReq struct {
	CompName  string `json:"comp_name,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	component := m.findComponentOr404(w, req.CompName)
	if component == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = serializer.Serialize(w)
	dieOnErr(err)
}

// findComponentOr404 must be called with the monitor lock held.
func (m *Monitor) findComponentOr404(
	w http.ResponseWriter,
	name string,
) device.Device {
	component, _, found := m.machine.Registry().Lookup(name)
	if !found {
		http.Error(w, "Component not found", http.StatusNotFound)
		return nil
	}

	return component
}

type regionRsp struct {
	Space string `json:"space"`
	Start uint32 `json:"start"`
	Size  uint32 `json:"size"`
	Name  string `json:"name"`
}

func (m *Monitor) listRegions(w http.ResponseWriter, _ *http.Request) {
	rsp := []regionRsp{}

	m.Do(func(mach *machine.Machine) {
		for _, space := range []addrspace.Space{
			addrspace.MemorySpace, addrspace.IOSpace,
		} {
			for _, r := range mach.Space().Regions(space) {
				rsp = append(rsp, regionRsp{
					Space: r.Space.String(),
					Start: r.Start,
					Size:  r.Size,
					Name:  r.Name,
				})
			}
		}
	})

	writeJSON(w, rsp)
}

type memRsp struct {
	Addr uint32 `json:"addr"`
	Data string `json:"data"`
}

func (m *Monitor) readMemory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	addr, err := strconv.ParseUint(vars["addr"], 0, 32)
	if err != nil {
		http.Error(w, "invalid address", http.StatusBadRequest)
		return
	}

	length, err := strconv.ParseUint(vars["len"], 0, 32)
	if err != nil || length > MaxDumpLength {
		http.Error(w, "invalid length", http.StatusBadRequest)
		return
	}

	var data []byte

	m.Do(func(mach *machine.Machine) {
		data = mach.ReadPhysBytes(uint32(addr), int(length))
	})

	writeJSON(w, memRsp{Addr: uint32(addr), Data: hex.EncodeToString(data)})
}

type portRsp struct {
	Port  uint8 `json:"port"`
	Value uint8 `json:"value"`
}

func parsePort(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	return uint8(v), err
}

func (m *Monitor) readPort(w http.ResponseWriter, r *http.Request) {
	port, err := parsePort(mux.Vars(r)["port"])
	if err != nil {
		http.Error(w, "invalid port", http.StatusBadRequest)
		return
	}

	var value uint8

	m.Do(func(mach *machine.Machine) {
		value = mach.CPUBus().In(port)
	})

	writeJSON(w, portRsp{Port: port, Value: value})
}

// writePort may start a DMA transfer, and only returns once it is done.
func (m *Monitor) writePort(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	port, err := parsePort(vars["port"])
	if err != nil {
		http.Error(w, "invalid port", http.StatusBadRequest)
		return
	}

	value, err := parsePort(vars["value"])
	if err != nil {
		http.Error(w, "invalid value", http.StatusBadRequest)
		return
	}

	m.Do(func(mach *machine.Machine) {
		mach.CPUBus().Out(port, value)
	})

	writeJSON(w, portRsp{Port: port, Value: value})
}

type dmaRsp struct {
	Name       string `json:"name"`
	BasePort   uint8  `json:"base_port"`
	DescAddr   uint32 `json:"desc_addr"`
	Clock      uint8  `json:"clk"`
	ReadCycle  uint8  `json:"rd_cycle"`
	WriteCycle uint8  `json:"wr_cycle"`
}

func (m *Monitor) dmaState(w http.ResponseWriter, _ *http.Request) {
	var rsp dmaRsp

	m.Do(func(mach *machine.Machine) {
		d := mach.DMA()
		rsp = dmaRsp{
			Name:       d.Name(),
			BasePort:   d.BasePort(),
			DescAddr:   d.DescAddr(),
			Clock:      uint8(d.Clock()),
			ReadCycle:  d.Clock().ReadCycle(),
			WriteCycle: d.Clock().WriteCycle(),
		}
	})

	writeJSON(w, rsp)
}

func (m *Monitor) reset(w http.ResponseWriter, _ *http.Request) {
	m.Do(func(mach *machine.Machine) {
		mach.Reset()
	})

	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]ProgressBarStatus, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Status())
	}

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	})
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(v)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
