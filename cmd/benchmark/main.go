// Command benchmark measures details fetch throughput against a real collection
// for a range of worker counts. It never deletes anything.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/processor"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/tracker"
)

func main() {
	ctx := context.Background()

	// Creating configuration from ENV (TCCLEAN_URI, TCCLEAN_PROJECT, TCCLEAN_TOKEN, ...)
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	conn, err := tracker.Connect(&cfg.Server, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}

	project, err := conn.Projects.GetProject(ctx, cfg.Server.ProjectName)
	if err != nil {
		log.Fatalf("Failed to look up project: %v", err)
	}

	start := time.Now()
	refs, err := conn.WorkItems.QueryByText(ctx, *project, tracker.TestCaseQuery(project.Name))
	if err != nil {
		log.Fatalf("Query failed: %v", err)
	}
	fmt.Printf("Query: %d test cases in %s\n", len(refs), time.Since(start))

	ids := make([]int, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}

	batchSize := mustGetEnvInt("BENCH_BATCH_SIZE", cfg.Cleanup.BatchSize)
	for _, workers := range workerCounts(os.Getenv("BENCH_WORKERS")) {
		before := conn.Monitor.RequestCount()
		start := time.Now()

		details, err := processor.FetchDetails(ctx, conn.WorkItems, ids, model.DetailFields, batchSize, workers)
		if err != nil {
			log.Fatalf("Fetch with %d workers failed: %v", workers, err)
		}

		elapsed := time.Since(start)
		fmt.Printf("workers=%-3d batch=%d: %d details, %d requests in %s (%d without steps)\n",
			workers, batchSize, len(details), conn.Monitor.RequestCount()-before, elapsed, len(processor.FilterNoSteps(details)))
	}
}

// workerCounts parses a comma separated list, 0 meaning unbounded
func workerCounts(s string) []int {
	if s == "" {
		return []int{1, 4, 16, 0}
	}
	var counts []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 0 {
			log.Printf("Ignoring invalid worker count %q", part)
			continue
		}
		counts = append(counts, n)
	}
	return counts
}

// mustGetEnvInt tries to parse an environment variable as int, returns default if not set or invalid
func mustGetEnvInt(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("Invalid int value for %s: %v. Using default: %d", key, err, def)
		return def
	}
	return i
}
