// Package shell provides the interactive SheetSight REPL over one loaded
// dataset.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/klytics/sheetsight/internal/chart"
	"github.com/klytics/sheetsight/internal/output"
	"github.com/klytics/sheetsight/internal/service"
	"github.com/klytics/sheetsight/internal/store"
)

// ErrNoDataset is returned by commands that need a loaded dataset.
var ErrNoDataset = errors.New("no dataset loaded; use 'load <file>' first")

// Session manages an interactive shell session.
type Session struct {
	Owner          string
	JSON           bool
	LastOutput     string
	CommandHistory []string
	HistoryFile    string
	StartTime      time.Time

	// KnownCommands is the list of shell commands for completion.
	KnownCommands []string

	svc     *service.Service
	current *store.Dataset
}

// NewSession creates a session that loads files for owner through svc.
func NewSession(svc *service.Service, owner string) *Session {
	home, _ := os.UserHomeDir()
	return &Session{
		Owner:       owner,
		HistoryFile: filepath.Join(home, ".sheetsight", "shell_history"),
		StartTime:   time.Now(),
		KnownCommands: []string{
			"load", "headers", "preview", "stats", "chart", "insight",
			"json", "history", "help", "exit", "quit",
		},
		svc: svc,
	}
}

// Current returns the loaded dataset, or nil.
func (s *Session) Current() *store.Dataset { return s.current }

// Run starts the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Run(ctx context.Context) error {
	os.MkdirAll(filepath.Dir(s.HistoryFile), 0755)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sheetsight> ",
		HistoryFile:     s.HistoryFile,
		AutoComplete:    readline.NewPrefixCompleter(s.buildCompleter()...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Println("SheetSight interactive shell")
	fmt.Println("Type 'help' for commands, 'exit' to quit.")
	fmt.Println()

	for {
		rl.SetPrompt(s.prompt())
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s.CommandHistory = append(s.CommandHistory, line)

		switch line {
		case "exit", "quit":
			fmt.Printf("\nSession ended. %d commands run in %s.\n",
				len(s.CommandHistory)-1, formatDuration(time.Since(s.StartTime)))
			return nil
		case "history":
			for i, cmd := range s.CommandHistory {
				fmt.Printf("  %d  %s\n", i+1, cmd)
			}
			continue
		}

		out, err := s.Eval(ctx, line)
		if out != "" {
			fmt.Print(out)
			if !strings.HasSuffix(out, "\n") {
				fmt.Println()
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
	}
	return nil
}

func (s *Session) prompt() string {
	if s.current == nil {
		return "sheetsight> "
	}
	return fmt.Sprintf("sheetsight [%s]> ", s.current.OriginalName)
}

// Eval runs a single command line and returns its output.
func (s *Session) Eval(ctx context.Context, line string) (string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	err := s.dispatch(ctx, &buf, args[0], args[1:])
	s.LastOutput = buf.String()
	return s.LastOutput, err
}

func (s *Session) dispatch(ctx context.Context, buf *bytes.Buffer, name string, args []string) error {
	w := output.NewWriter(buf)
	switch name {
	case "help":
		printHelp(buf)
		return nil
	case "load":
		if len(args) != 1 {
			return fmt.Errorf("usage: load <file>")
		}
		return s.load(ctx, buf, args[0])
	case "json":
		s.JSON = !s.JSON
		fmt.Fprintf(buf, "JSON output %s\n", onOff(s.JSON))
		return nil
	}

	if s.current == nil {
		return ErrNoDataset
	}
	switch name {
	case "headers":
		if s.JSON {
			return output.PrintJSON(buf, name, s.current.Headers)
		}
		for i, h := range s.current.Headers {
			fmt.Fprintf(buf, "  %d  %s\n", i+1, h)
		}
		return nil
	case "preview":
		n := service.PreviewRows
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil || v <= 0 {
				return fmt.Errorf("preview count must be a positive integer")
			}
			n = v
		}
		recs := s.current.Table().Preview(n)
		if s.JSON {
			return output.PrintJSON(buf, name, recs)
		}
		return w.Records(s.current.Headers, recs)
	case "stats":
		sum, err := s.svc.Stats(ctx, s.Owner, s.current.ID)
		if err != nil {
			return err
		}
		if s.JSON {
			return output.PrintJSON(buf, name, sum)
		}
		return w.Summary(sum)
	case "chart":
		in, err := parseChart(args)
		if err != nil {
			return err
		}
		in.DatasetID = s.current.ID
		c, err := s.svc.GenerateChart(ctx, s.Owner, in)
		if err != nil {
			return err
		}
		if s.JSON {
			return output.PrintJSON(buf, name, c)
		}
		return w.Chart(c.Title, c.Data)
	case "insight":
		rec, _, err := s.svc.GenerateInsight(ctx, s.Owner, s.current.ID)
		if err != nil {
			return err
		}
		if s.JSON {
			return output.PrintJSON(buf, name, rec)
		}
		return w.Insight(rec)
	default:
		return fmt.Errorf("unknown command %q; type 'help'", name)
	}
}

func (s *Session) load(ctx context.Context, buf *bytes.Buffer, path string) error {
	res, err := s.svc.IngestFile(ctx, s.Owner, path)
	if err != nil {
		return err
	}
	d, err := s.svc.Dataset(ctx, s.Owner, res.Dataset.ID)
	if err != nil {
		return err
	}
	s.current = d
	fmt.Fprintf(buf, "Loaded %s: %d rows, %d columns\n", d.OriginalName, d.RowCount, d.ColumnCount)
	return nil
}

// parseChart reads "<kind> <x> <y> [z] [agg=...] [title=...]".
func parseChart(args []string) (service.ChartInput, error) {
	var in service.ChartInput
	var pos []string
	for _, a := range args {
		key, val, ok := strings.Cut(a, "=")
		if !ok {
			pos = append(pos, a)
			continue
		}
		switch key {
		case "agg", "aggregation":
			in.Aggregation = val
		case "title":
			in.Title = strings.ReplaceAll(val, "_", " ")
		default:
			return in, fmt.Errorf("unknown chart option %q", key)
		}
	}
	if len(pos) < 3 || len(pos) > 4 {
		return in, fmt.Errorf("usage: chart <kind> <x> <y> [z] [agg=sum|avg|count|min|max]")
	}
	in.Kind, in.XAxis, in.YAxis = pos[0], pos[1], pos[2]
	if len(pos) == 4 {
		in.ZAxis = pos[3]
	}
	return in, nil
}

// Complete returns tab-completion candidates for the given input.
func (s *Session) Complete(input string) []string {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return s.KnownCommands
	}

	if len(parts) == 1 && !strings.HasSuffix(input, " ") {
		return withPrefix(s.KnownCommands, parts[0])
	}

	if parts[0] != "chart" {
		return nil
	}
	prefix := ""
	if !strings.HasSuffix(input, " ") {
		prefix = parts[len(parts)-1]
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 1 {
		return withPrefix(kindNames(), prefix)
	}
	if s.current == nil {
		return nil
	}
	return withPrefix(s.current.Headers, prefix)
}

func withPrefix(candidates []string, prefix string) []string {
	var matches []string
	for _, c := range candidates {
		if strings.HasPrefix(c, prefix) {
			matches = append(matches, c)
		}
	}
	sort.Strings(matches)
	return matches
}

func kindNames() []string {
	names := make([]string, len(chart.Kinds))
	for i, k := range chart.Kinds {
		names[i] = string(k)
	}
	return names
}

func (s *Session) headers(string) []string {
	if s.current == nil {
		return nil
	}
	return s.current.Headers
}

func (s *Session) buildCompleter() []readline.PrefixCompleterInterface {
	var kinds []readline.PrefixCompleterInterface
	for _, k := range kindNames() {
		kinds = append(kinds, readline.PcItem(k, readline.PcItemDynamic(s.headers, readline.PcItemDynamic(s.headers))))
	}
	var items []readline.PrefixCompleterInterface
	for _, cmd := range s.KnownCommands {
		if cmd == "chart" {
			items = append(items, readline.PcItem(cmd, kinds...))
			continue
		}
		items = append(items, readline.PcItem(cmd))
	}
	return items
}

func printHelp(buf *bytes.Buffer) {
	fmt.Fprintln(buf, "Commands:")
	fmt.Fprintln(buf, "  load <file>                  load an .xlsx or .csv file")
	fmt.Fprintln(buf, "  headers                      list column headers")
	fmt.Fprintln(buf, "  preview [n]                  show the first n records")
	fmt.Fprintln(buf, "  stats                        numeric column statistics")
	fmt.Fprintln(buf, "  chart <kind> <x> <y> [z]     derive chart data (agg=..., title=...)")
	fmt.Fprintln(buf, "  insight                      generate insights for the dataset")
	fmt.Fprintln(buf, "  json                         toggle JSON output")
	fmt.Fprintln(buf, "  history                      show command history")
	fmt.Fprintln(buf, "  exit                         leave the shell")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, sec)
}
