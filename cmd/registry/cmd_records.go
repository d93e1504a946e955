package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"registry/internal/types"
)

var jsonOutput bool

// getCmd shows one record
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one record",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// latestCmd shows an owner's newest record
var latestCmd = &cobra.Command{
	Use:   "latest <github-username>",
	Short: "Show the newest record created by a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runLatest,
}

// listCmd lists every record newest first
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all records, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// migrateCmd applies pending schema migrations
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the database schema",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	for _, c := range []*cobra.Command{getCmd, latestCmd, listCmd} {
		c.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON instead of a table")
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Width(12)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8a8f98"))
)

func runGet(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return fmt.Errorf("record id must be a whole number: %q", args[0])
	}
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.Get(commandContext(cmd), id)
	if err != nil {
		return err
	}
	return printRecord(cmd.OutOrStdout(), rec)
}

func runLatest(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := s.LatestByOwner(commandContext(cmd), strings.TrimSpace(args[0]))
	if err != nil {
		return err
	}
	return printRecord(cmd.OutOrStdout(), rec)
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.List(commandContext(cmd))
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		return writeJSON(out, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("No records."))
		return nil
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "NAME", "STATE", "OWNER", "UPDATED").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, rec := range records {
		t.Row(strconv.FormatInt(rec.ID, 10), rec.Name, rec.State, rec.Owner, rec.UpdatedAt.Format(time.DateTime))
	}
	fmt.Fprintln(out, t.String())
	fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("%d record(s)", len(records))))
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := commandContext(cmd)
	if err := s.CheckSchema(ctx); err != nil {
		return err
	}
	applied, err := s.AppliedMigrations(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s %s\n", headerStyle.Render("Database:"), s.Path())
	for _, name := range applied {
		fmt.Fprintf(out, "  applied %s\n", name)
	}
	return nil
}

func printRecord(out io.Writer, rec types.StoredRecord) error {
	if jsonOutput {
		return writeJSON(out, rec)
	}
	options := rec.OptionsValue()
	if options == "" {
		options = mutedStyle.Render("(none)")
	}
	lines := []string{
		headerStyle.Render(fmt.Sprintf("Record #%d", rec.ID)),
		labelStyle.Render("Name") + rec.Name,
		labelStyle.Render("State") + rec.State,
		labelStyle.Render("Owner") + "@" + rec.Owner,
		labelStyle.Render("Options") + options,
		labelStyle.Render("Created") + rec.CreatedAt.Format(time.DateTime),
		labelStyle.Render("Updated") + rec.UpdatedAt.Format(time.DateTime),
	}
	fmt.Fprintln(out, lipgloss.JoinVertical(lipgloss.Left, lines...))
	return nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
