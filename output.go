package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/transcript"
)

const maxNameWidth = 40

// printListing writes the catalog: a table on a terminal, plain rows otherwise.
// The track a download would pick is marked with "*".
func printListing(w io.Writer, l *transcript.Listing, asTable bool) {
	fmt.Fprintf(w, "Video ID: %s\n\n", l.VideoID)
	fmt.Fprintln(w, "Available captions:")

	rows := make([][]string, 0, len(l.Tracks))
	for _, t := range l.Tracks {
		mark := ""
		if t.LanguageCode == l.Selected.LanguageCode {
			mark = "*"
		}
		rows = append(rows, []string{mark, t.LanguageCode, engine.TruncateRunes(t.LanguageName, maxNameWidth, "…"), trackKind(t)})
	}

	if asTable {
		fmt.Fprintln(w, renderTable([]string{"", "Code", "Name", "Type"}, rows))
		return
	}
	for _, r := range rows {
		mark := " "
		if r[0] != "" {
			mark = r[0]
		}
		fmt.Fprintf(w, "%s %s - %s (%s)\n", mark, r[1], r[2], r[3])
	}
}

func trackKind(t transcript.CaptionTrack) string {
	if t.IsAutoGenerated {
		return "auto-generated"
	}
	return "manual"
}

func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// outputPath picks the destination: the -o value, else <videoId>.<ext> under outputDir.
func outputPath(flag, outputDir string, res *transcript.Result) string {
	if flag != "" {
		return flag
	}
	return filepath.Join(outputDir, res.DefaultFilename())
}

// writeResult writes the transcript and reports it. With dest "-" the content
// goes to stdout and the report to stderr.
func writeResult(stdout, stderr io.Writer, res *transcript.Result, flag, outputDir string) (string, error) {
	dest := outputPath(flag, outputDir, res)
	report := stdout

	if dest == "-" {
		report = stderr
		content := res.Content
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		if _, err := io.WriteString(stdout, content); err != nil {
			return "", fmt.Errorf("write stdout: %w", err)
		}
	} else if err := writeFileAtomic(dest, []byte(res.Content)); err != nil {
		return "", err
	}

	fmt.Fprintf(report, "Downloaded %d lines (%s)\n", len(res.Lines), res.Track.LanguageCode)
	if dest != "-" {
		fmt.Fprintf(report, "Saved: %s\n", dest)
	}
	return dest, nil
}

// writeFileAtomic writes through a temp file in the same directory so a
// failed write never leaves a partial file at path.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
