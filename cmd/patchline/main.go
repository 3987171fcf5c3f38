package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/viant/patchline/service"

	_ "github.com/go-sql-driver/mysql"    // mysql replica driver
	_ "github.com/lib/pq"                 // postgres replica driver
	_ "github.com/viant/afsc/gs"          // gs:// content URLs
	_ "github.com/viant/afsc/s3"          // s3:// content URLs
	_ "github.com/viant/bigquery"         // bigquery replica driver
	_ "modernc.org/sqlite"                // pure Go sqlite driver
)

func main() {
	startGops()
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "create":
		createCmd(os.Args[2:])
	case "commit":
		commitCmd(os.Args[2:])
	case "load":
		loadCmd(os.Args[2:])
	case "docs":
		docsCmd(os.Args[2:])
	case "history":
		historyCmd(os.Args[2:])
	case "stats":
		statsCmd(os.Args[2:])
	case "import":
		importCmd(os.Args[2:])
	case "export":
		exportCmd(os.Args[2:])
	case "replicate":
		replicateCmd(os.Args[2:])
	case "serve":
		serveCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: patchline <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  create     Create a new document")
	fmt.Fprintln(os.Stderr, "  commit     Commit a new version from a file or stdin")
	fmt.Fprintln(os.Stderr, "  load       Print document content as of a timestamp")
	fmt.Fprintln(os.Stderr, "  docs       List documents")
	fmt.Fprintln(os.Stderr, "  history    List patch timestamps of a document")
	fmt.Fprintln(os.Stderr, "  stats      Show storage statistics of a document")
	fmt.Fprintln(os.Stderr, "  import     Commit content from a URL (pdf/xlsx/xls/docx extracted)")
	fmt.Fprintln(os.Stderr, "  export     Write content as of a timestamp to a URL")
	fmt.Fprintln(os.Stderr, "  replicate  Push documents and patches to a remote database")
	fmt.Fprintln(os.Stderr, "  serve      Run the MCP server")
}

// storeFlags holds the flags shared by every command that opens a store.
type storeFlags struct {
	db            *string
	driver        *string
	configPath    *string
	window        *int
	cacheCapacity *int
	debugSleep    *int
}

func addStoreFlags(flags *flag.FlagSet) *storeFlags {
	return &storeFlags{
		db:            flags.String("db", "", "database DSN, sqlite path for the default driver (required unless config has store.dsn)"),
		driver:        flags.String("driver", "", "database/sql driver: sqlite|mysql|postgres (default sqlite)"),
		configPath:    flags.String("config", "", "config yaml (optional, defaults to ~/patchline/config.yaml if present)"),
		window:        flags.Int("window", 0, "base-selection window (default 16)"),
		cacheCapacity: flags.Int("cache-capacity", 0, "bound the version cache; 0 keeps it unbounded"),
		debugSleep:    flags.Int("debug-sleep", 0, "debug: sleep N seconds before execution (for gops)"),
	}
}

// newService resolves config and flags into a Service. Flags win over
// config values.
func newService(sf *storeFlags) (*service.Service, *service.Config) {
	configPath := resolveConfigPath(*sf.configPath)
	var cfg *service.Config
	if configPath != "" {
		var err error
		if cfg, err = service.LoadConfig(configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	dsn := *sf.db
	driver := *sf.driver
	window := *sf.window
	capacity := *sf.cacheCapacity
	if cfg != nil {
		if dsn == "" {
			dsn = cfg.Store.DSN
		}
		if driver == "" {
			driver = cfg.Store.Driver
		}
		if window == 0 {
			window = cfg.Window
		}
		if capacity == 0 {
			capacity = cfg.CacheCapacity
		}
	}
	if dsn == "" {
		log.Fatalf("database DSN is required (--db or config store.dsn)")
	}
	svc, err := service.NewService(
		service.WithDSN(dsn),
		service.WithDriver(driver),
		service.WithWindow(window),
		service.WithCacheCapacity(capacity),
		service.WithLogf(log.Printf),
	)
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	return svc, cfg
}

func resolveConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	candidate := home + "/patchline/config.yaml"
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

func createCmd(args []string) {
	flags := flag.NewFlagSet("create", flag.ExitOnError)
	sf := addStoreFlags(flags)
	name := flags.String("name", "", "document name (required)")
	flags.Parse(args)
	if *name == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("create", *sf.debugSleep)

	svc, _ := newService(sf)
	defer func() { _ = svc.Close() }()

	id, err := svc.CreateDocument(ctx, service.CreateDocumentRequest{Name: *name, Logf: log.Printf})
	if err != nil {
		log.Fatalf("create: %v", err)
	}
	fmt.Println(id)
}

func commitCmd(args []string) {
	flags := flag.NewFlagSet("commit", flag.ExitOnError)
	sf := addStoreFlags(flags)
	doc := flags.String("doc", "", "document id (required)")
	file := flags.String("file", "-", "content file, - for stdin")
	timestamp := flags.Int64("timestamp", 0, "patch timestamp in epoch millis (default now)")
	flags.Parse(args)
	if *doc == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("commit", *sf.debugSleep)

	content, err := readContent(*file)
	if err != nil {
		log.Fatalf("commit: %v", err)
	}
	svc, _ := newService(sf)
	defer func() { _ = svc.Close() }()

	patchID, err := svc.CreatePatch(ctx, service.CreatePatchRequest{
		DocumentID: *doc,
		Content:    content,
		Timestamp:  *timestamp,
		Logf:       log.Printf,
	})
	if err != nil {
		log.Fatalf("commit: %v", err)
	}
	fmt.Println(patchID)
}

func loadCmd(args []string) {
	flags := flag.NewFlagSet("load", flag.ExitOnError)
	sf := addStoreFlags(flags)
	doc := flags.String("doc", "", "document id (required)")
	timestamp := flags.Int64("timestamp", 0, "load as of epoch millis (default now)")
	mcpAddr := flags.String("mcp-addr", "", "query a running serve instance instead of opening the database")
	flags.Parse(args)
	if *doc == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("load", *sf.debugSleep)

	if *mcpAddr != "" {
		out, err := mcpLoad(ctx, *mcpAddr, *doc, *timestamp)
		if err != nil {
			log.Fatalf("load: %v", err)
		}
		fmt.Print(out)
		return
	}

	svc, _ := newService(sf)
	defer func() { _ = svc.Close() }()

	asOf := *timestamp
	if asOf == 0 {
		asOf = time.Now().UnixMilli()
	}
	content, err := svc.Load(ctx, *doc, asOf)
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	_, _ = os.Stdout.Write(content)
}

func docsCmd(args []string) {
	flags := flag.NewFlagSet("docs", flag.ExitOnError)
	sf := addStoreFlags(flags)
	mcpAddr := flags.String("mcp-addr", "", "query a running serve instance instead of opening the database")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("docs", *sf.debugSleep)

	if *mcpAddr != "" {
		docs, err := mcpDocuments(ctx, *mcpAddr)
		if err != nil {
			log.Fatalf("docs: %v", err)
		}
		for _, doc := range docs {
			fmt.Printf("id=%s name=%q created_at=%d\n", doc.UUID, doc.Name, doc.CreatedAt)
		}
		return
	}

	svc, _ := newService(sf)
	defer func() { _ = svc.Close() }()

	docs, err := svc.Documents(ctx)
	if err != nil {
		log.Fatalf("docs: %v", err)
	}
	for _, doc := range docs {
		fmt.Printf("id=%s name=%q created_at=%d\n", doc.UUID, doc.Name, doc.CreatedAt)
	}
}

func historyCmd(args []string) {
	flags := flag.NewFlagSet("history", flag.ExitOnError)
	sf := addStoreFlags(flags)
	doc := flags.String("doc", "", "document id (required)")
	flags.Parse(args)
	if *doc == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("history", *sf.debugSleep)

	svc, _ := newService(sf)
	defer func() { _ = svc.Close() }()

	timestamps, err := svc.PatchTimestamps(ctx, *doc)
	if err != nil {
		log.Fatalf("history: %v", err)
	}
	for _, ts := range timestamps {
		fmt.Printf("%d\t%s\n", ts, time.UnixMilli(ts).UTC().Format(time.RFC3339Nano))
	}
}

func statsCmd(args []string) {
	flags := flag.NewFlagSet("stats", flag.ExitOnError)
	sf := addStoreFlags(flags)
	doc := flags.String("doc", "", "document id (required)")
	flags.Parse(args)
	if *doc == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("stats", *sf.debugSleep)

	svc, _ := newService(sf)
	defer func() { _ = svc.Close() }()

	stats, err := svc.Stats(ctx, *doc)
	if err != nil {
		log.Fatalf("stats: %v", err)
	}
	fmt.Printf("patches=%d delta_bytes=%d uncompressed_bytes=%d ratio=%.2f\n",
		stats.PatchCount, stats.TotalDeltaBytes, stats.TotalUncompressedBytes, stats.CompressionRatio)
}

func importCmd(args []string) {
	flags := flag.NewFlagSet("import", flag.ExitOnError)
	sf := addStoreFlags(flags)
	doc := flags.String("doc", "", "existing document id (optional, creates one when empty)")
	name := flags.String("name", "", "name for a created document (default: source base name)")
	source := flags.String("source", "", "source URL: file path, s3:// or gs:// (required)")
	timestamp := flags.Int64("timestamp", 0, "patch timestamp in epoch millis (default now)")
	flags.Parse(args)
	if *source == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("import", *sf.debugSleep)

	svc, _ := newService(sf)
	defer func() { _ = svc.Close() }()

	result, err := svc.Import(ctx, service.ImportRequest{
		DocumentID: *doc,
		Name:       *name,
		SourceURL:  *source,
		Timestamp:  *timestamp,
		Logf:       log.Printf,
	})
	if err != nil {
		log.Fatalf("import: %v", err)
	}
	fmt.Printf("document=%s patch=%s bytes=%d\n", result.DocumentID, result.PatchID, result.Bytes)
}

func exportCmd(args []string) {
	flags := flag.NewFlagSet("export", flag.ExitOnError)
	sf := addStoreFlags(flags)
	doc := flags.String("doc", "", "document id (required)")
	timestamp := flags.Int64("timestamp", 0, "export as of epoch millis (default now)")
	dest := flags.String("dest", "", "destination URL: file path, s3:// or gs:// (required)")
	flags.Parse(args)
	if *doc == "" || *dest == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("export", *sf.debugSleep)

	svc, _ := newService(sf)
	defer func() { _ = svc.Close() }()

	if err := svc.Export(ctx, service.ExportRequest{
		DocumentID: *doc,
		Timestamp:  *timestamp,
		DestURL:    *dest,
		Logf:       log.Printf,
	}); err != nil {
		log.Fatalf("export: %v", err)
	}
}

func replicateCmd(args []string) {
	flags := flag.NewFlagSet("replicate", flag.ExitOnError)
	sf := addStoreFlags(flags)
	targetDriver := flags.String("target-driver", "", "replica sql driver (auto-detect from dsn if empty)")
	targetDSN := flags.String("target-dsn", "", "replica dsn (required unless config has replicas)")
	batch := flags.Int("batch", 0, "replica insert batch size (default 200)")
	flags.Parse(args)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	maybeDebugSleep("replicate", *sf.debugSleep)

	svc, cfg := newService(sf)
	defer func() { _ = svc.Close() }()

	targets := replicaTargets(*targetDriver, *targetDSN, *batch, cfg)
	if len(targets) == 0 {
		flags.Usage()
		os.Exit(2)
	}
	for _, target := range targets {
		result, err := svc.Replicate(ctx, service.ReplicateRequest{
			Driver: target.Driver,
			DSN:    target.DSN,
			Batch:  target.Batch,
			Logf:   log.Printf,
		})
		if err != nil {
			log.Fatalf("replicate: %v", err)
		}
		fmt.Printf("driver=%s documents=%d patches=%d\n", target.Driver, result.Documents, result.Patches)
	}
}

func replicaTargets(driver, dsn string, batch int, cfg *service.Config) []service.ReplicaConfig {
	if dsn != "" {
		if driver == "" {
			detected, ok := detectDriver(dsn)
			if !ok {
				log.Fatalf("replicate: unable to detect driver from dsn, use --target-driver")
			}
			driver = detected
		}
		return []service.ReplicaConfig{{Driver: driver, DSN: dsn, Batch: batch}}
	}
	if cfg == nil {
		return nil
	}
	return cfg.Replicas
}

// detectDriver guesses a database/sql driver from the DSN shape.
func detectDriver(dsn string) (string, bool) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "", false
	}
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres", true
	case strings.HasPrefix(lower, "bigquery://"), strings.HasPrefix(lower, "bigquery:"), strings.HasPrefix(lower, "bq://"):
		return "bigquery", true
	case strings.HasPrefix(lower, "file:"), lower == ":memory:", strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".db"):
		return "sqlite", true
	case strings.Contains(lower, "@tcp("), strings.Contains(lower, "@unix("):
		return "mysql", true
	}
	return "", false
}

func readContent(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func maybeDebugSleep(cmd string, seconds int) {
	if seconds <= 0 {
		seconds = debugSleepFromEnv()
	}
	if seconds <= 0 {
		return
	}
	log.Printf("debug: cmd=%s pid=%d sleep=%ds", cmd, os.Getpid(), seconds)
	time.Sleep(time.Duration(seconds) * time.Second)
}

func startGops() {
	if err := agent.Listen(agent.Options{ShutdownCleanup: true}); err != nil {
		log.Printf("gops: %v", err)
	}
}

func debugSleepFromEnv() int {
	val := strings.TrimSpace(os.Getenv("PATCHLINE_DEBUG_SLEEP"))
	if val == "" {
		return 0
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
