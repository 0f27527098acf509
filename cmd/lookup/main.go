package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/zatekoja/vaccinefinder/backend/internal/adapters/providers/publicdata"
	"github.com/zatekoja/vaccinefinder/backend/internal/domain/entities"
	"github.com/zatekoja/vaccinefinder/backend/internal/matching"
	"github.com/zatekoja/vaccinefinder/backend/pkg/config"
)

// lookupLine is one line of output in -json mode
type lookupLine struct {
	Query      string           `json:"query"`
	Normalized string           `json:"normalized"`
	Alias      string           `json:"alias,omitempty"`
	Outcome    matching.Outcome `json:"outcome"`
	Key        string           `json:"key,omitempty"`
	Distance   int              `json:"distance"`
	Vaccines   []string         `json:"vaccines,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		dataPath    string
		tablesPath  string
		maxDistance int
		suffixes    string
		asJSON      bool
	)
	fs.StringVar(&dataPath, "data", "", "vaccine site JSON file (defaults to the bundled sample)")
	fs.StringVar(&tablesPath, "tables", "", "alias and region table YAML file (defaults to built-in tables)")
	fs.IntVar(&maxDistance, "max-distance", matching.DefaultMaxDistance, "edit distance cutoff, negative disables")
	fs.StringVar(&suffixes, "suffixes", "", "comma separated facility-type suffixes to strip")
	fs.BoolVar(&asJSON, "json", false, "print one JSON object per name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("usage: lookup [flags] name...")
	}

	sites, err := loadSites(dataPath)
	if err != nil {
		return err
	}
	tables, err := config.LoadTables(tablesPath)
	if err != nil {
		return err
	}

	normalizer := matching.NewNormalizer(parseSuffixes(suffixes))
	matcher := matching.NewMatcher(normalizer, maxDistance)
	snap := matching.NewSnapshot(normalizer, sites, entities.Location{}, "file", time.Now())
	aliases := matching.AliasTable(tables.Aliases)

	encoder := json.NewEncoder(out)
	for _, name := range fs.Args() {
		query := aliases.Resolve(name)
		result := matcher.Lookup(query, snap)

		line := lookupLine{
			Query:      name,
			Normalized: normalizer.Normalize(query),
			Outcome:    result.Outcome,
			Key:        result.Key,
			Distance:   result.Distance,
		}
		if query != name {
			line.Alias = query
		}
		if result.Found() {
			line.Vaccines = result.Site.Vaccines
		}

		if asJSON {
			if err := encoder.Encode(line); err != nil {
				return err
			}
			continue
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%s\n", line.Query, line.Outcome, line.Key, line.Distance, strings.Join(line.Vaccines, ", "))
	}
	return nil
}

func loadSites(path string) ([]entities.VaccineSite, error) {
	if path == "" {
		return publicdata.NewSampleSource("").Load(context.Background())
	}
	return publicdata.LoadFile(path)
}

func parseSuffixes(value string) []string {
	if strings.TrimSpace(value) == "" {
		return matching.DefaultSuffixes
	}
	var out []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
