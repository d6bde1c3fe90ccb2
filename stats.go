package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhcgn/mbox2db/extract"
	"github.com/dhcgn/mbox2db/mbox"
	"github.com/dhcgn/mbox2db/stats"
)

var (
	reportDir string
	topN      int
)

var statsCmd = &cobra.Command{
	Use:   "stats [mbox file]",
	Short: "Analyse the mbox archive and show statistics without writing a database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStats(args[0])
	},
}

func init() {
	statsCmd.Flags().StringVarP(&reportDir, "output", "o", "", "Output directory for CSV reports (skipped when empty)")
	statsCmd.Flags().IntVarP(&topN, "top", "t", 10, "Number of top items to display in statistics")
	rootCmd.AddCommand(statsCmd)
}

func runStats(mboxPath string) error {
	fmt.Println("Analyzing mbox file:", mboxPath)

	scanner, err := mbox.Open(mboxPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = scanner.Close()
	}()

	categories := []string{"From", "To", "Subject", "Labels"}
	counter := make(map[string]map[string]int)
	for _, category := range categories {
		counter[category] = make(map[string]int)
	}

	assembler := extract.NewAssembler()
	messageCount := 0
	spamCount := 0
	trashCount := 0

	printStats := func() {
		// ANSI escape code to clear screen and move cursor to top-left
		fmt.Print("\033[H\033[2J")
		_, unparsedDates := assembler.Counts()
		fmt.Printf("Processed %d messages (%d spam, %d trash, %d unparsed dates)...\n\n", messageCount, spamCount, trashCount, unparsedDates)

		for _, category := range categories {
			fmt.Printf("Top %d %s:\n", topN, category)
			stats.PrettyPrintTop(counter[category], topN)
			fmt.Println()
		}
	}

	for {
		msg, err := scanner.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("error reading mbox file: %w", err)
		}

		rec, verdict := assembler.Assemble(msg)
		messageCount++
		if verdict.IsSpam {
			spamCount++
		}
		if verdict.IsTrash {
			trashCount++
		}

		if rec.From != "" {
			counter["From"][rec.From]++
		}
		if rec.To != "" {
			counter["To"][rec.To]++
		}
		if rec.Subject != "" {
			counter["Subject"][rec.Subject]++
		}
		for _, label := range strings.Split(rec.Labels, ",") {
			label = strings.TrimSpace(label)
			if label != "" {
				counter["Labels"][label]++
			}
		}

		if messageCount%250 == 0 {
			printStats()
		}
	}

	// Final print
	printStats()

	if reportDir != "" {
		if err := saveCSVReports(counter, categories, reportDir, 1000); err != nil {
			return fmt.Errorf("error saving CSV reports: %w", err)
		}
		fmt.Printf("\nReports saved to directory: %s\n", reportDir)
	}

	return nil
}

func saveCSVReports(counter map[string]map[string]int, categories []string, dir string, limit int) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	// Write data for each category to a separate file
	for _, category := range categories {
		counts := counter[category]

		filename := fmt.Sprintf("report_%s.csv", normalizeCategoryName(category))
		filePath := filepath.Join(dir, filename)

		file, err := os.Create(filePath)
		if err != nil {
			return err
		}

		writer := csv.NewWriter(file)

		if err := writer.Write([]string{"Value", "Count"}); err != nil {
			file.Close()
			return err
		}

		// Sort by count descending
		type pair struct {
			Key   string
			Value int
		}
		var pairs []pair
		for k, v := range counts {
			pairs = append(pairs, pair{k, v})
		}
		sort.Slice(pairs, func(i, j int) bool {
			return pairs[i].Value > pairs[j].Value
		})

		// Write top N entries
		for i := 0; i < limit && i < len(pairs); i++ {
			record := []string{
				pairs[i].Key,
				strconv.Itoa(pairs[i].Value),
			}
			if err := writer.Write(record); err != nil {
				file.Close()
				return err
			}
		}

		writer.Flush()
		file.Close()

		if err := writer.Error(); err != nil {
			return err
		}
	}

	return nil
}

func normalizeCategoryName(category string) string {
	// Convert to lowercase and replace invalid filename chars
	name := strings.ToLower(category)
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
