package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"JobScraper/internal/browser"
	"JobScraper/internal/domain"
	"JobScraper/internal/orchestrator"
	"JobScraper/internal/site"
	"JobScraper/pkg/logging"
)

type entryList []string

func (e *entryList) String() string { return strings.Join(*e, ",") }

func (e *entryList) Set(v string) error {
	*e = append(*e, v)
	return nil
}

var actions = map[string]domain.Action{
	"search":    domain.ActionJobSearch,
	"details":   domain.ActionJobDetails,
	"arbitrary": domain.ActionArbitraryDetails,
	"profile":   domain.ActionProfileUpdate,
}

// crawl is one CLI run once the flags are validated
type crawl struct {
	job       domain.Job
	action    string
	selectors string
	outDir    string
	limit     int
}

func main() {
	var entries entryList
	var (
		action     = flag.String("action", "search", "search | details | arbitrary | profile")
		authorized = flag.Bool("authorized", false, "Use the logged-in session from -cookies")
		cookies    = flag.String("cookies", "", "JSON file with the session cookies [{name,value,domain,path}]")
		headline   = flag.String("headline", "", "New profile headline (-action profile)")
		driver     = flag.String("driver", string(browser.DriverChrome), "Browser driver: chrome | playwright")
		userAgent  = flag.String("user-agent", "", "User-Agent sent by the browser")
		headless   = flag.Bool("headless", true, "Run the browser headless")
		limit      = flag.Int("limit", 100, "Maximum new job URLs per entry point")
		outDir     = flag.String("out-dir", "data", "Output directory for CSV and screenshots")
		selectors  = flag.String("selectors", "", "YAML file overriding the built-in selectors")
		logLevel   = flag.String("log-level", "info", "debug | info | warn | error")
	)
	flag.Var(&entries, "entry", "Entry point URL (repeatable)")
	flag.Parse()

	act, ok := actions[*action]
	if !ok {
		log.Fatalf("unknown -action %q", *action)
	}
	if act != domain.ActionProfileUpdate && len(entries) == 0 {
		log.Fatal("usage: -action search|details|arbitrary -entry URL [-entry URL ...] [-authorized -cookies cookies.json]")
	}
	if act == domain.ActionProfileUpdate && *headline == "" {
		log.Fatal("usage: -action profile -headline TEXT -cookies cookies.json")
	}

	job := domain.Job{
		ID:             uuid.NewString(),
		UserID:         "cli",
		Dashboard:      domain.DashboardLinkedIn,
		Action:         act,
		AuthorizedUser: *authorized || act == domain.ActionProfileUpdate,
		EntryPoints:    entries,
		BrowserOptions: domain.BrowserOptions{DriverName: *driver, UserAgent: *userAgent, HeadlessMode: *headless},
		Headline:       *headline,
	}
	if act == domain.ActionArbitraryDetails {
		job.Dashboard = domain.DashboardOther
	}
	if *cookies != "" {
		var err error
		if job.UserCookies, err = readCookies(*cookies); err != nil {
			log.Fatalf("read cookies: %v", err)
		}
	}

	logger := logging.New(*logLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, crawl{
		job:       job,
		action:    *action,
		selectors: *selectors,
		outDir:    *outDir,
		limit:     *limit,
	}, logger)
	stop()
	_ = logger.Sync()
	os.Exit(code)
}

// run executes c and returns the process exit code. Everything after the logger
// exists reports through it so buffered entries are flushed by main.
func run(ctx context.Context, c crawl, logger *logging.Logger) int {
	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		logger.Error("create output dir", "err", err)
		return 1
	}
	st, err := site.Load(c.selectors)
	if err != nil {
		logger.Error("load selectors", "err", err)
		return 1
	}

	runner := orchestrator.NewRunner(st, orchestrator.Options{
		SearchLimit:   c.limit,
		ScreenshotDir: filepath.Join(c.outDir, "screenshots"),
		Timeouts:      site.DefaultTimeouts(),
	}, nil, nil, logger)

	res, runErr := runner.Run(ctx, c.job)
	if runErr != nil {
		logger.Error("job finished with error", "err", runErr)
	}
	if res == nil {
		return 1
	}

	filename := filepath.Join(c.outDir, fmt.Sprintf("%s_%s.csv", c.action, time.Now().Format("20060102_150405")))
	if err := writeCSV(filename, res, time.Now()); err != nil {
		logger.Error("write CSV", "err", err)
		return 1
	}
	logger.Info("CSV saved", "path", filename)

	if runErr != nil {
		return 1
	}
	return 0
}

// =============== Input ===============

func readCookies(path string) ([]domain.UserCookie, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []domain.UserCookie
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// =============== CSV ===============

func writeCSV(path string, res any, capturedAt time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}

	w := csv.NewWriter(f)
	defer w.Flush()

	header, rows := records(res)
	if err := w.Write(append(header, "captured_at")); err != nil {
		return err
	}
	ts := capturedAt.Format("2006-01-02 15:04:05")
	for _, rec := range rows {
		if err := w.Write(append(rec, ts)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func records(res any) ([]string, [][]string) {
	switch r := res.(type) {
	case domain.SearchResults:
		rows := make([][]string, 0, len(r.URLs))
		for _, u := range r.URLs {
			rows = append(rows, []string{u})
		}
		return []string{"url"}, rows
	case domain.DetailsResults:
		rows := make([][]string, 0, len(r.JobDetails))
		for _, d := range r.JobDetails {
			rows = append(rows, []string{
				value(d.ID),
				d.URL,
				value(d.CompanyName),
				value(d.Position),
				value(d.RawJobDescription),
			})
		}
		return []string{"id", "url", "company", "position", "description"}, rows
	case domain.ProfileUpdateResult:
		return []string{"previous_headline", "headline"}, [][]string{{r.PreviousHeadline, r.Headline}}
	default:
		return []string{"result"}, [][]string{{fmt.Sprint(res)}}
	}
}

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
