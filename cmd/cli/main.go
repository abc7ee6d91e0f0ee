// Package main provides an interactive REPL over the sqlgate bridge.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sqlgate/sqlgate"
	"github.com/sqlgate/sqlgate/bridge"
	"github.com/sqlgate/sqlgate/remote"
)

const (
	PromptColor  = "\033[36m" // Cyan
	ErrorColor   = "\033[31m" // Red
	SuccessColor = "\033[32m" // Green
	ResetColor   = "\033[0m"
	BoldColor    = "\033[1m"
)

// Version is set at build time via -ldflags
var Version = "dev"

// CLI holds the REPL state.
type CLI struct {
	bridge      *bridge.Bridge
	database    string // current connection identifier
	history     []string
	historyFile string
}

// statementResult is the collected output of one statement: column
// names plus every row rendered as text.
type statementResult struct {
	Columns []string
	Rows    [][]string
}

func main() {
	database := flag.String("db", bridge.MemoryIdentifier, "Connection identifier (filename or :memory:)")
	sqlFile := flag.String("sqlFile", "", "SQL file to execute (non-interactive)")
	seedFrom := flag.String("seedFrom", "", "URL to fetch the database file from before opening (s3://, http://, file://)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sqlgate cli v%s\n", Version)
		return
	}

	printBanner()

	if *seedFrom != "" {
		if *database == bridge.MemoryIdentifier {
			fmt.Printf("%sError: -seedFrom needs a file database, not :memory:%s\n", ErrorColor, ResetColor)
			os.Exit(1)
		}
		fmt.Printf("%sSeeding %s from %s%s\n", SuccessColor, *database, *seedFrom, ResetColor)
		if err := remote.Fetch(*seedFrom, *database, remote.ConfigFromEnv()); err != nil {
			fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
	}

	instance := sqlgate.OpenDefault()
	defer instance.Close()

	b := instance.Bridge()
	if err := b.OpenDatabase(*database); err != nil {
		fmt.Printf("%sError: %v%s\n", ErrorColor, err, ResetColor)
		os.Exit(1)
	}

	cli := &CLI{
		bridge:      b,
		database:    *database,
		historyFile: getHistoryPath(),
	}
	cli.loadHistory()

	if *sqlFile != "" {
		if err := cli.importFile(*sqlFile); err != nil {
			fmt.Printf("%sError importing file: %v%s\n", ErrorColor, err, ResetColor)
			os.Exit(1)
		}
		return
	}

	cli.run()
}

func printBanner() {
	fmt.Println()
	fmt.Printf("%s%ssqlgate v%s — handle-based SQL bridge%s\n", BoldColor, PromptColor, Version, ResetColor)
	fmt.Println("Type .help for commands, .quit to exit")
	fmt.Println()
}

func (cli *CLI) run() {
	reader := bufio.NewReader(os.Stdin)
	var multiLineBuffer strings.Builder

	for {
		fmt.Print(cli.getPrompt(multiLineBuffer.Len() > 0))

		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Printf("\n%sGoodbye!%s\n", SuccessColor, ResetColor)
			cli.saveHistory()
			return
		}

		input = strings.TrimSuffix(input, "\n")
		input = strings.TrimSuffix(input, "\r")

		if strings.TrimSpace(input) == "" {
			continue
		}

		if multiLineBuffer.Len() == 0 && strings.HasPrefix(input, ".") {
			if cli.handleCommand(input) {
				continue
			}
		}

		// Accumulate until the statement ends with a semicolon.
		multiLineBuffer.WriteString(input)
		trimmed := strings.TrimSpace(multiLineBuffer.String())
		if !strings.HasSuffix(trimmed, ";") {
			multiLineBuffer.WriteString(" ")
			continue
		}

		sql := strings.TrimSuffix(trimmed, ";")
		multiLineBuffer.Reset()

		if strings.TrimSpace(sql) == "" {
			continue
		}

		cli.addToHistory(sql + ";")

		result, err := cli.runStatement(sql)
		if err != nil {
			fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
		} else {
			result.display()
		}
	}
}

// runStatement drives one SQL statement through the full bridge
// protocol: prepare, execute, check the statement error channel, then
// step the cursor and collect rows.
func (cli *CLI) runStatement(sql string) (*statementResult, error) {
	handle, err := cli.bridge.Prepare(cli.database, sql)
	if err != nil {
		return nil, err
	}
	defer cli.bridge.Finalize(handle)

	if err := cli.bridge.Execute(handle); err != nil {
		return nil, err
	}
	hasErr, message, err := cli.bridge.ResultErr(handle)
	if err != nil {
		return nil, err
	}
	if hasErr {
		return nil, fmt.Errorf("%s", message)
	}

	count, err := cli.bridge.ColumnCount(handle)
	if err != nil {
		return nil, err
	}
	result := &statementResult{}
	for i := 0; i < count; i++ {
		name, err := cli.bridge.ColumnName(handle, i)
		if err != nil {
			return nil, err
		}
		result.Columns = append(result.Columns, name)
	}

	for {
		hasRow, err := cli.bridge.ResultRow(handle)
		if err != nil {
			return nil, err
		}
		if !hasRow {
			break
		}
		row := make([]string, count)
		for i := 0; i < count; i++ {
			text, err := cli.bridge.ColumnText(handle, i)
			if err != nil {
				return nil, err
			}
			row[i] = text
		}
		result.Rows = append(result.Rows, row)
	}

	// A step failure lands on the statement error channel.
	if hasErr, message, _ := cli.bridge.ResultErr(handle); hasErr {
		return nil, fmt.Errorf("%s", message)
	}

	return result, nil
}

func (r *statementResult) display() {
	if len(r.Rows) == 0 {
		fmt.Printf("%s✓ OK%s\n", SuccessColor, ResetColor)
		return
	}

	widths := make([]int, len(r.Columns))
	for i, col := range r.Columns {
		widths[i] = len(col)
	}
	for _, row := range r.Rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		fmt.Println("| " + strings.Join(parts, " | ") + " |")
	}

	printRow(r.Columns)
	sep := make([]string, len(r.Columns))
	for i := range sep {
		sep[i] = strings.Repeat("-", widths[i])
	}
	printRow(sep)
	for _, row := range r.Rows {
		printRow(row)
	}
	fmt.Printf("%d row(s)\n", len(r.Rows))
}

func (cli *CLI) getPrompt(multiLine bool) string {
	if multiLine {
		return fmt.Sprintf("%s   ...>%s ", PromptColor, ResetColor)
	}
	return fmt.Sprintf("%ssqlgate (%s)>%s ", PromptColor, cli.database, ResetColor)
}

func (cli *CLI) handleCommand(input string) bool {
	cmd := strings.TrimSpace(input)
	parts := strings.Fields(cmd)

	if len(parts) == 0 {
		return true
	}

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit", ".q":
		fmt.Printf("%sGoodbye!%s\n", SuccessColor, ResetColor)
		cli.saveHistory()
		os.Exit(0)

	case ".help", ".h", ".?":
		cli.printHelp()

	case ".open":
		if len(parts) > 1 {
			if err := cli.bridge.OpenDatabase(parts[1]); err != nil {
				fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			} else {
				cli.database = parts[1]
				fmt.Printf("%s✓ Using database: %s%s\n", SuccessColor, cli.database, ResetColor)
			}
		} else {
			fmt.Printf("%s✗ Usage: .open <identifier>%s\n", ErrorColor, ResetColor)
		}

	case ".clear", ".cls":
		fmt.Print("\033[H\033[2J")

	case ".history":
		cli.printHistory()

	case ".version":
		fmt.Printf("sqlgate version %s\n", Version)

	case ".import":
		if len(parts) > 1 {
			if err := cli.importFile(parts[1]); err != nil {
				fmt.Printf("%s✗ Error: %v%s\n", ErrorColor, err, ResetColor)
			}
		} else {
			fmt.Printf("%s✗ Usage: .import <file.sql>%s\n", ErrorColor, ResetColor)
		}

	default:
		fmt.Printf("%s✗ Unknown command: %s (type .help for commands)%s\n", ErrorColor, parts[0], ResetColor)
	}

	return true
}

func (cli *CLI) printHelp() {
	fmt.Println()
	fmt.Printf("%s%sSpecial Commands:%s\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("  .help, .h          Show this help message")
	fmt.Println("  .quit, .exit       Exit the CLI")
	fmt.Println("  .open <identifier> Open or switch to a database")
	fmt.Println("  .import <file>     Execute SQL statements from a file")
	fmt.Println("  .history           Show command history")
	fmt.Println("  .clear             Clear the screen")
	fmt.Println("  .version           Show version info")
	fmt.Println()
	fmt.Printf("%s%sSQL:%s statements end with a semicolon and run against\n", BoldColor, PromptColor, ResetColor)
	fmt.Println("the current database through the bridge, one row at a time.")
	fmt.Println()
}

func (cli *CLI) addToHistory(cmd string) {
	// Don't add duplicates of the last command
	if len(cli.history) > 0 && cli.history[len(cli.history)-1] == cmd {
		return
	}
	cli.history = append(cli.history, cmd)

	if len(cli.history) > 1000 {
		cli.history = cli.history[len(cli.history)-1000:]
	}
}

func (cli *CLI) printHistory() {
	if len(cli.history) == 0 {
		fmt.Println("No command history")
		return
	}

	start := 0
	if len(cli.history) > 20 {
		start = len(cli.history) - 20
	}

	for i := start; i < len(cli.history); i++ {
		fmt.Printf("  %3d  %s\n", i+1, cli.history[i])
	}
}

func getHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".sqlgate_history")
}

func (cli *CLI) loadHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Open(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		cli.history = append(cli.history, scanner.Text())
	}
}

func (cli *CLI) saveHistory() {
	if cli.historyFile == "" {
		return
	}

	file, err := os.Create(cli.historyFile)
	if err != nil {
		return
	}
	defer file.Close()

	start := 0
	if len(cli.history) > 1000 {
		start = len(cli.history) - 1000
	}

	for i := start; i < len(cli.history); i++ {
		_, _ = file.WriteString(cli.history[i] + "\n")
	}
}

// importFile reads and executes SQL statements from a file
func (cli *CLI) importFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	statements := splitStatements(string(data))

	successCount := 0
	errorCount := 0

	for i, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}

		result, err := cli.runStatement(stmt)
		if err != nil {
			fmt.Printf("%s[%d] ✗ %s%s\n", ErrorColor, i+1, truncate(stmt, 50), ResetColor)
			fmt.Printf("      Error: %v\n", err)
			errorCount++
		} else {
			successCount++
			fmt.Printf("%s[%d] ✓ %s (%d rows)%s\n", SuccessColor, i+1, truncate(stmt, 50), len(result.Rows), ResetColor)
		}
	}

	fmt.Printf("\n%s✓ Import complete: %d succeeded, %d failed%s\n",
		SuccessColor, successCount, errorCount, ResetColor)

	return nil
}

// splitStatements splits SQL content into individual statements
func splitStatements(content string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(content); i++ {
		ch := content[i]

		// Handle string literals
		if (ch == '\'' || ch == '"') && (i == 0 || content[i-1] != '\\') {
			if !inString {
				inString = true
				stringChar = ch
			} else if ch == stringChar {
				inString = false
			}
		}

		// Handle comments
		if !inString && ch == '-' && i+1 < len(content) && content[i+1] == '-' {
			for i < len(content) && content[i] != '\n' {
				i++
			}
			continue
		}

		// Statement separator
		if !inString && ch == ';' {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" {
				statements = append(statements, stmt)
			}
			current.Reset()
			continue
		}

		current.WriteByte(ch)
	}

	stmt := strings.TrimSpace(current.String())
	if stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}

// truncate shortens a string to max length with ellipsis
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
