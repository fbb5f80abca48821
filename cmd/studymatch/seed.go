package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

//go:embed seed_default.json
var defaultSeed []byte

// seedData is the file format accepted by `studymatch seed`. Each entry is
// posted as-is to the matching create endpoint.
type seedData struct {
	Students  []map[string]any `json:"students"`
	Groups    []map[string]any `json:"groups"`
	Resources []map[string]any `json:"resources"`
}

// seedResult counts the outcome per collection.
type seedResult struct {
	Created int
	Skipped int // already present (409)
	Failed  int
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load students, groups and resources into the running server",
	Long: `Load students, groups and resources into the running server.

Without --file a built-in demo set is loaded. Students whose email is already
registered are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		raw := defaultSeed
		if file != "" {
			b, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading seed file: %w", err)
			}
			raw = b
		}
		data, err := parseSeed(raw)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		return runSeed(cmd.Context(), client, data)
	},
}

func init() {
	seedCmd.Flags().String("file", "", "JSON file with students, groups and resources (default: built-in demo set)")
}

func parseSeed(raw []byte) (seedData, error) {
	var data seedData
	if err := json.Unmarshal(raw, &data); err != nil {
		return seedData{}, fmt.Errorf("parsing seed data: %w", err)
	}
	if len(data.Students)+len(data.Groups)+len(data.Resources) == 0 {
		return seedData{}, errors.New("seed data is empty")
	}
	return data, nil
}

func runSeed(ctx context.Context, client *apiClient, data seedData) error {
	total := seedResult{}
	for _, coll := range []struct {
		label string
		path  string
		items []map[string]any
	}{
		{"students", "/students", data.Students},
		{"groups", "/groups", data.Groups},
		{"resources", "/resources", data.Resources},
	} {
		if len(coll.items) == 0 {
			continue
		}
		printStep("Seeding %d %s...", len(coll.items), coll.label)
		res := seedCollection(ctx, client, coll.path, coll.items)
		printStatus(coll.label, "%d created, %d skipped, %d failed", res.Created, res.Skipped, res.Failed)
		total.Created += res.Created
		total.Skipped += res.Skipped
		total.Failed += res.Failed
	}

	if total.Failed > 0 {
		return fmt.Errorf("%d seed records failed", total.Failed)
	}
	printSuccess("Seeded %d records (%d already present)", total.Created, total.Skipped)
	return nil
}

func seedCollection(ctx context.Context, client *apiClient, path string, items []map[string]any) seedResult {
	var res seedResult
	for _, item := range items {
		resp, err := client.post(ctx, path, item)
		if err != nil {
			printError("%v", err)
			res.Failed++
			continue
		}
		err = decodeJSON(resp, nil)
		var apiErr *apiError
		switch {
		case err == nil:
			res.Created++
		case errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict:
			res.Skipped++
		default:
			printError("%s: %v", path, err)
			res.Failed++
		}
	}
	return res
}
