package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lensflow/internal/api"
)

var titleCaser = cases.Title(language.English)

func printJSON(out io.Writer, payload any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func stdoutIsTerminal() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

func categoryLabel(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return "-"
	}
	return titleCaser.String(category)
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01")
}

func formatTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}

func formatVideo(view api.PhotoView) string {
	switch {
	case view.VideoRef != "":
		return "yes"
	case view.AnimationInFlight:
		return "generating"
	default:
		return "-"
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func photoRows(photos []api.PhotoView) [][]string {
	rows := make([][]string, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, []string{
			shortID(p.ID),
			p.Description,
			categoryLabel(p.Category),
			formatTimestamp(p.Timestamp),
			formatTags(p.Tags),
			formatVideo(p),
		})
	}
	return rows
}

var photoHeaders = []string{"ID", "Title", "Category", "Date", "Tags", "Video"}

func writePhotoTable(out io.Writer, photos []api.PhotoView) {
	if len(photos) == 0 {
		fmt.Fprintln(out, "No photos found")
		return
	}
	if !stdoutIsTerminal() {
		for _, row := range photoRows(photos) {
			fmt.Fprintln(out, strings.Join(row, "\t"))
		}
		return
	}
	fmt.Fprintln(out, renderTable(photoHeaders, photoRows(photos), nil))
}
