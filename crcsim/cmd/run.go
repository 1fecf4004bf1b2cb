package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/crcrepl/datarecording"
	"github.com/sarchlab/crcrepl/monitoring"
	"github.com/sarchlab/crcrepl/replacement"
	"github.com/sarchlab/crcrepl/tagging"
	"github.com/sarchlab/crcrepl/tracefile"
	"github.com/sarchlab/crcrepl/tracing"
)

var runFlags struct {
	policy        string
	numSets       int
	associativity int
	blockSize     int
	seed          int64
	signatureHash string
	record        string
	monitor       bool
	monitorPort   int
	openMonitor   bool
	histogram     bool
	maxAccesses   uint64
}

var runCmd = &cobra.Command{
	Use:   "run [trace]",
	Short: "Replay a trace through a cache and print replacement statistics",
	Long: `Replay a trace through a cache and print replacement statistics. ` +
		`Traces ending in .gz, .zst, .lz4 or .sz are decompressed on the fly.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(envFile)
		if err != nil {
			return err
		}

		if cfg, err = applyRunFlags(cmd, cfg); err != nil {
			return err
		}

		if logLevel == "" {
			if err := configureLogging(cfg.LogLevel); err != nil {
				return err
			}
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		return Replay(cfg, args[0], runFlags.maxAccesses, cmd.OutOrStdout())
	},
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.policy, "policy", "",
		"The replacement policy, by name or code. Overrides CRC_POLICY.")
	f.IntVar(&runFlags.numSets, "sets", 0, "The number of sets.")
	f.IntVar(&runFlags.associativity, "ways", 0, "The number of ways per set.")
	f.IntVar(&runFlags.blockSize, "block-size", 0, "The block size in bytes.")
	f.Int64Var(&runFlags.seed, "seed", 0,
		"The seed of the bimodal and random draws.")
	f.StringVar(&runFlags.signatureHash, "signature-hash", "",
		"How SHiP-PC hashes PCs, mask or xxhash.")
	f.StringVar(&runFlags.record, "record", "",
		"Record every decision into this SQLite database name or "+
			"clickhouse:// DSN.")
	f.BoolVar(&runFlags.monitor, "monitor", false,
		"Serve the engine state over HTTP while replaying.")
	f.IntVar(&runFlags.monitorPort, "monitor-port", 0,
		"The port of the monitor. 0 picks a free port.")
	f.BoolVar(&runFlags.openMonitor, "open-monitor", false,
		"Open the monitor in a browser. Implies --monitor.")
	f.BoolVar(&runFlags.histogram, "victim-histogram", false,
		"Print how often each way was chosen as the victim.")
	f.Uint64Var(&runFlags.maxAccesses, "max-accesses", 0,
		"Stop after this many accesses. 0 replays the whole trace.")

	rootCmd.AddCommand(runCmd)
}

func applyRunFlags(cmd *cobra.Command, cfg Config) (Config, error) {
	f := cmd.Flags()

	if f.Changed("policy") {
		p, err := replacement.ParsePolicy(runFlags.policy)
		if err != nil {
			return cfg, err
		}

		cfg.Policy = p
	}

	if f.Changed("sets") {
		cfg.NumSets = runFlags.numSets
	}

	if f.Changed("ways") {
		cfg.Associativity = runFlags.associativity
	}

	if f.Changed("block-size") {
		cfg.BlockSize = runFlags.blockSize
	}

	if f.Changed("seed") {
		cfg.Seed = runFlags.seed
	}

	if f.Changed("signature-hash") {
		cfg.SignatureHash = runFlags.signatureHash
	}

	if f.Changed("record") {
		cfg.Record = true
		cfg.RecordPath = runFlags.record
	}

	if f.Changed("monitor") {
		cfg.Monitor = runFlags.monitor
	}

	if f.Changed("monitor-port") {
		cfg.MonitorPort = runFlags.monitorPort
	}

	if f.Changed("victim-histogram") {
		cfg.VictimHistogram = runFlags.histogram
	}

	if runFlags.openMonitor {
		cfg.Monitor = true
		cfg.OpenMonitor = true
	}

	return cfg, nil
}

type runSummary struct {
	ID            string
	Trace         string
	Policy        string
	NumSets       int
	Associativity int
	Accesses      uint64
	Hits          uint64
	Misses        uint64
	Bypasses      uint64
	MissRate      float64
	Seconds       float64
}

// Replay runs the trace at tracePath through a cache built from cfg and
// writes the statistics to out. A maxAccesses of 0 replays the whole trace.
//
// The monitor and the recorder are shut down on every return path.
func Replay(
	cfg Config,
	tracePath string,
	maxAccesses uint64,
	out io.Writer,
) (err error) {
	hasher, err := replacement.ParseSignatureHasher(cfg.SignatureHash)
	if err != nil {
		return err
	}

	logger := logrus.StandardLogger()

	engine := replacement.MakeBuilder().
		WithNumSets(cfg.NumSets).
		WithWayAssociativity(cfg.Associativity).
		WithPolicy(cfg.Policy).
		WithSeed(cfg.Seed).
		WithSignatureHasher(hasher).
		WithLogger(logger).
		Build("LLC")
	cache := tagging.NewCache(
		tagging.NewTagArray(cfg.NumSets, cfg.Associativity, cfg.BlockSize),
		engine,
		logger,
	)

	var (
		recorder datarecording.DataRecorder
		tracer   *tracing.DBTracer
	)

	if cfg.Record {
		recorder = datarecording.Open(cfg.RecordPath, logger)
		tracer = tracing.NewDBTracer(recorder)
		engine.AcceptHook(tracer)
		recorder.CreateTable("run_summary", runSummary{})

		defer func() {
			tracer.Terminate()

			if closeErr := recorder.Close(); closeErr != nil && err == nil {
				err = closeErr
			}
		}()
	}

	var counter *tracing.DecisionCounter
	if cfg.VictimHistogram {
		counter = tracing.NewDecisionCounter()
		engine.AcceptHook(counter)
	}

	step := func(f func()) { f() }

	var (
		monitor *monitoring.Monitor
		bar     *monitoring.ProgressBar
	)

	if cfg.Monitor {
		monitor = monitoring.NewMonitor().WithPortNumber(cfg.MonitorPort)
		monitor.RegisterEngine(engine)
		bar = monitor.CreateProgressBar(tracePath, maxAccesses)
		url := monitor.StartServer()

		defer func() {
			monitor.CompleteProgressBar(bar)

			if stopErr := monitor.StopServer(); stopErr != nil {
				logger.WithError(stopErr).Warn("cannot stop the monitor")
			}
		}()

		if cfg.OpenMonitor {
			if err := monitoring.OpenInBrowser(url); err != nil {
				logger.WithError(err).Warn("cannot open the monitor")
			}
		}

		step = monitor.Step
	}

	reader, err := tracefile.Open(tracePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	logger.WithFields(logrus.Fields{
		"trace":  tracePath,
		"policy": cfg.Policy,
		"sets":   cfg.NumSets,
		"ways":   cfg.Associativity,
	}).Info("replay started")

	start := time.Now()

	var accesses uint64
	for maxAccesses == 0 || accesses < maxAccesses {
		rec, err := reader.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return err
		}

		step(func() {
			cache.Access(rec.ThreadID, rec.PC, rec.Address, rec.Type)
		})

		accesses++
		if bar != nil {
			bar.IncrementFinished(1)
		}
	}

	elapsed := time.Since(start)

	stats := cache.Stats()
	logger.WithFields(logrus.Fields{
		"accesses": accesses,
		"elapsed":  elapsed,
	}).Info("replay finished")

	if recorder != nil {
		recorder.InsertData("run_summary", runSummary{
			ID:            xid.New().String(),
			Trace:         tracePath,
			Policy:        cfg.Policy.String(),
			NumSets:       cfg.NumSets,
			Associativity: cfg.Associativity,
			Accesses:      stats.TotalAccesses(),
			Hits:          stats.TotalHits(),
			Misses:        stats.TotalMisses(),
			Bypasses:      stats.Bypasses,
			MissRate:      stats.MissRate(),
			Seconds:       elapsed.Seconds(),
		})
	}

	if _, err := fmt.Fprintf(out, "Policy: %s\nAccesses: %d\nTime: %s\n\n",
		cfg.Policy, accesses, elapsed); err != nil {
		return err
	}

	if err := engine.PrintStats(out); err != nil {
		return err
	}

	if err := cache.PrintStats(out); err != nil {
		return err
	}

	if counter != nil {
		return printVictimHistogram(out, counter)
	}

	return nil
}

func printVictimHistogram(w io.Writer, counter *tracing.DecisionCounter) error {
	if _, err := fmt.Fprintln(w, "\nVictim ways"); err != nil {
		return err
	}

	for _, way := range counter.VictimWays() {
		_, err := fmt.Fprintf(w, "%4d %12d\n", way, counter.VictimCount(way))
		if err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "Bypasses %d\n", counter.Bypasses())

	return err
}
