package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"camino-lote/automation"
	"camino-lote/batch"
	"camino-lote/clipboard"
	"camino-lote/config"
	"camino-lote/coords"
	"camino-lote/logutil"
	"camino-lote/processor"
	"camino-lote/records"
	"camino-lote/vpn"
)

const fileTimestampFormat = "20060102_150405"

type runOptions struct {
	csvPath     string
	coordsPath  string
	outputDir   string
	resultsPath string
	startDelay  float64
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a batch of DNIs against the target application",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(*opts)
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "Delimited input file with DNIs and names")
	cmd.Flags().StringVar(&opts.coordsPath, "coords", "camino-lote.json", "JSON file with recorded screen coordinates")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "Directory for output files (default from config)")
	cmd.Flags().StringVar(&opts.resultsPath, "results-file", "", "Results file to append to; reusing one resumes the run, skipping DNIs already in it")
	cmd.Flags().Float64Var(&opts.startDelay, "start-delay", 3.0, "Seconds to wait before the first UI action")
	_ = cmd.MarkFlagRequired("csv")

	return cmd
}

func runBatch(opts runOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	timestamp := time.Now().Format(fileTimestampFormat)
	logutil.Setup(cfg.EnableFileLogging, filepath.Join(outputDir, "scraping_"+timestamp+".log"))

	set, err := coords.Load(opts.coordsPath)
	if err != nil {
		return err
	}
	log.Printf("coordinates validated: %d actions", len(set))

	input, err := records.Load(opts.csvPath)
	if err != nil {
		return err
	}
	log.Printf("input loaded: %d records, DNI column %q, name column %q",
		len(input.Records), input.DNIColumn, input.NameColumn)

	resultsPath := opts.resultsPath
	if resultsPath == "" {
		resultsPath = filepath.Join(outputDir, "resultados_"+timestamp+".csv")
	}
	failuresPath := filepath.Join(outputDir, "fallos_"+timestamp+".tsv")
	vpnLogPath := filepath.Join(outputDir, "vpn_log_"+timestamp+".txt")

	done, err := records.LoadProgress(resultsPath, input.DNIColumn)
	if err != nil {
		return err
	}

	pending := pendingRecords(input.Records, done)
	skipped := len(input.Records) - len(pending)

	color.New(color.Bold).Printf("camino-lote: %d records, %d already done, %d to process\n",
		len(input.Records), skipped, len(pending))
	fmt.Printf("  resultados: %s\n  fallos:     %s\n  vpn log:    %s\n", resultsPath, failuresPath, vpnLogPath)

	if len(pending) == 0 {
		fmt.Println("nothing to do")
		return nil
	}

	// Manual interruption mirrors a keyboard interrupt: exit 130, nothing
	// beyond the in-flight record is lost since every outcome is already
	// on disk.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("interrupted by operator")
		fmt.Fprintln(os.Stderr, "\ninterrupted")
		os.Exit(130)
	}()

	fmt.Printf("starting in %.0f seconds... (move the pointer to the top-left corner to abort)\n", opts.startDelay)
	time.Sleep(time.Duration(opts.startDelay * float64(time.Second)))

	clip := clipboard.New(cfg.Delays.ClipboardRetry)
	driver := automation.NewRobotDriver(cfg.Delays)
	monitor := vpn.NewMonitor(cfg.VPNHost, cfg.VPNPingTimeout, cfg.VPNCheckInterval,
		cfg.VPNStabilityCount, cfg.VPNStabilityDelay, cfg.VPNRetryCooldown)
	vpnLog := vpn.NewEventLog(vpnLogPath)
	vpnLog.Printf("Inicio sesion - VPN Host: %s", cfg.VPNHost)

	controller := &batch.Controller{
		Processor: processor.New(driver, clip, set, cfg),
		Monitor:   monitor,
		Driver:    driver,
		Clipboard: clip,
		Coords:    set,
		Cfg:       cfg,
		Results:   records.NewResultsWriter(resultsPath, input.Fields),
		Failures:  records.NewFailuresWriter(failuresPath),
		VPNLog:    vpnLog,
	}

	summary, runErr := controller.Run(pending)
	summary.Skipped = skipped
	printSummary(summary, vpnLog)

	return runErr
}

// pendingRecords drops the records whose DNI is already in the progress set,
// preserving input order.
func pendingRecords(recs []records.Record, done map[string]struct{}) []records.Record {
	var pending []records.Record
	for _, rec := range recs {
		if _, ok := done[rec.DNI]; !ok {
			pending = append(pending, rec)
		}
	}
	return pending
}

func printSummary(s batch.Summary, vpnLog *vpn.EventLog) {
	bold := color.New(color.Bold)
	bold.Println("==================================================")
	bold.Println("RESUMEN FINAL")
	bold.Println("==================================================")
	fmt.Printf("Procesados: %d (omitidos por reanudacion: %d)\n", s.Succeeded+s.Failed, s.Skipped)
	color.Green("Exitosos: %d", s.Succeeded)
	color.Yellow("Fallidos: %d", s.Failed)
	if s.Replays > 0 {
		fmt.Printf("Reintentos tras caida: %d (%d exitosos)\n", s.Replays, s.ReplaysOK)
	}

	if len(s.VPNEvents) == 0 {
		vpnLog.Printf("Sesion finalizada - Sin caidas de VPN")
		return
	}

	var totalDown time.Duration
	totalPings := 0
	fmt.Printf("Eventos de VPN: %d\n", len(s.VPNEvents))
	for i, e := range s.VPNEvents {
		totalDown += e.Duration()
		totalPings += e.PingAttempts
		fmt.Printf("  #%d: %s a %s (caida %s, %d pings, reintentos %d/%d, DNIs %v)\n",
			i+1, e.Start.Format("15:04:05"), e.End.Format("15:04:05"),
			e.Duration().Round(time.Second), e.PingAttempts,
			e.RetriesOK, e.RetriesOK+e.RetriesFailed, e.AffectedDNIs)
	}
	vpnLog.Printf("Sesion finalizada - Desconexiones: %d - Tiempo caido: %s - Pings: %d",
		len(s.VPNEvents), totalDown.Round(time.Second), totalPings)
}
