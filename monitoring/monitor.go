// Package monitoring turns a trace replay into a small web server that
// exposes the live state of the registered replacement engines.
package monitoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/crcrepl/replacement"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor serves the state of replacement engines over HTTP.
type Monitor struct {
	engines    []*replacement.Engine
	portNumber int
	profileFor time.Duration

	// engineLock serializes engine mutation in Step against the handlers.
	engineLock sync.Mutex

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	listener net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{profileFor: time.Second}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers an engine to be monitored.
func (m *Monitor) RegisterEngine(e *replacement.Engine) {
	m.engineLock.Lock()
	defer m.engineLock.Unlock()

	m.engines = append(m.engines, e)
}

// Step runs f while no handler is reading engine state. Replay loops wrap
// each access in Step.
func (m *Monitor) Step(f func()) {
	m.engineLock.Lock()
	defer m.engineLock.Unlock()

	f()
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        newProgressBarID(),
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

// Router returns the HTTP routes of the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/list_engines", m.listEngines)
	r.HandleFunc("/api/engine/{name}", m.engineDetails)
	r.HandleFunc("/api/engine/{name}/stats", m.engineStats)
	r.HandleFunc("/api/engine/{name}/psel", m.psel)
	r.HandleFunc("/api/engine/{name}/shct/{sig}", m.shctCounter)
	r.HandleFunc("/api/engine/{name}/set/{id}", m.setState)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server and returns its URL.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.listener = listener

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring replacement engines with %s\n", url)

	router := m.Router()

	go func() {
		err := http.Serve(listener, router)
		if err != nil && !isClosedErr(err) {
			dieOnErr(err)
		}
	}()

	return url
}

// StopServer closes the listener opened by StartServer.
func (m *Monitor) StopServer() error {
	if m.listener == nil {
		return nil
	}

	err := m.listener.Close()
	m.listener = nil

	return err
}

// OpenInBrowser opens the engine list of a running monitor.
func OpenInBrowser(url string) error {
	return browser.OpenURL(url + "/api/list_engines")
}

func isClosedErr(err error) bool {
	return errors.Is(err, net.ErrClosed)
}

func (m *Monitor) listEngines(w http.ResponseWriter, _ *http.Request) {
	m.engineLock.Lock()
	defer m.engineLock.Unlock()

	names := make([]string, 0, len(m.engines))
	for _, e := range m.engines {
		names = append(names, e.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) engineDetails(w http.ResponseWriter, r *http.Request) {
	m.engineLock.Lock()
	defer m.engineLock.Unlock()

	engine := m.findEngineOr404(w, mux.Vars(r)["name"])
	if engine == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(engine)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

type statsRsp struct {
	Policy string            `json:"policy"`
	Timer  uint64            `json:"timer"`
	Stats  replacement.Stats `json:"stats"`
}

func (m *Monitor) engineStats(w http.ResponseWriter, r *http.Request) {
	m.engineLock.Lock()
	defer m.engineLock.Unlock()

	engine := m.findEngineOr404(w, mux.Vars(r)["name"])
	if engine == nil {
		return
	}

	writeJSON(w, statsRsp{
		Policy: engine.Policy().String(),
		Timer:  engine.Timer(),
		Stats:  engine.Stats(),
	})
}

type pselRsp struct {
	PSEL              uint32 `json:"psel"`
	FollowersUseBRRIP bool   `json:"followers_use_brrip"`
}

func (m *Monitor) psel(w http.ResponseWriter, r *http.Request) {
	m.engineLock.Lock()
	defer m.engineLock.Unlock()

	engine := m.findEngineOr404(w, mux.Vars(r)["name"])
	if engine == nil {
		return
	}

	writeJSON(w, pselRsp{
		PSEL:              engine.PSEL(),
		FollowersUseBRRIP: engine.FollowersUseBRRIP(),
	})
}

type shctRsp struct {
	Signature uint32 `json:"signature"`
	Counter   uint8  `json:"counter"`
}

func (m *Monitor) shctCounter(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	sig, err := strconv.ParseUint(vars["sig"], 0, 32)
	if err != nil {
		http.Error(w, "Invalid signature: "+err.Error(), http.StatusBadRequest)
		return
	}

	m.engineLock.Lock()
	defer m.engineLock.Unlock()

	engine := m.findEngineOr404(w, vars["name"])
	if engine == nil {
		return
	}

	writeJSON(w, shctRsp{
		Signature: uint32(sig) & replacement.SignatureMask,
		Counter:   engine.SHCTCounter(uint32(sig)),
	})
}

type setRsp struct {
	Set      int                     `json:"set"`
	Lines    []replacement.LineState `json:"lines"`
	PLRUBits []uint8                 `json:"plru_bits,omitempty"`
}

func (m *Monitor) setState(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	setID, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "Invalid set: "+err.Error(), http.StatusBadRequest)
		return
	}

	m.engineLock.Lock()
	defer m.engineLock.Unlock()

	engine := m.findEngineOr404(w, vars["name"])
	if engine == nil {
		return
	}

	if setID < 0 || setID >= engine.NumSets() {
		http.Error(w, "Set out of range", http.StatusNotFound)
		return
	}

	rsp := setRsp{Set: setID}
	for way := 0; way < engine.Associativity(); way++ {
		rsp.Lines = append(rsp.Lines, engine.Line(setID, way))
	}

	if engine.Policy() == replacement.PLRU {
		bits := engine.PLRUBits(setID)
		rsp.PLRUBits = bits[:]
	}

	writeJSON(w, rsp)
}

func (m *Monitor) findEngineOr404(
	w http.ResponseWriter,
	name string,
) *replacement.Engine {
	for _, e := range m.engines {
		if e.Name() == name {
			return e
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Engine not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	bars := make([]progressSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
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

	time.Sleep(m.profileFor)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
