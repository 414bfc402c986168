package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/PauloHFS/gothpress/internal/db"
	"github.com/PauloHFS/gothpress/internal/logging"
	"github.com/PauloHFS/gothpress/internal/worker"
)

// RunJobs opera a dead letter queue pela linha de comando: inspecionar o
// que falhou, reenfileirar ou descartar. O banco é compartilhado com o
// servidor, então dá para rodar com ele no ar.
func RunJobs() {
	if len(os.Args) < 3 {
		jobsUsage()
		os.Exit(1)
	}

	logging.Init()
	logger := logging.Get()

	conn, err := openDB()
	if err != nil {
		fmt.Printf("failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	dlq := worker.NewDeadLetterQueue(db.New(conn), conn, logger)
	ctx := context.Background()

	switch os.Args[2] {
	case "list":
		entries, err := dlq.List(ctx)
		if err != nil {
			fmt.Printf("failed to list dead letter queue: %v\n", err)
			os.Exit(1)
		}
		if len(entries) == 0 {
			fmt.Println("dead letter queue is empty")
			return
		}
		for _, e := range entries {
			movedAt := "?"
			if e.MovedAt.Valid {
				movedAt = e.MovedAt.Time.Format("2006-01-02 15:04")
			}
			fmt.Printf("%6d  %-28s  attempts=%d  moved=%s\n      %s\n",
				e.ID, e.Type, e.AttemptCount, movedAt, e.LastError.String)
		}

	case "stats":
		stats, err := dlq.Stats(ctx)
		if err != nil {
			fmt.Printf("failed to collect stats: %v\n", err)
			os.Exit(1)
		}
		keys := make([]string, 0, len(stats))
		for k := range stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("%-28s %d\n", k, stats[k])
		}

	case "retry":
		id := jobsArgID()
		job, err := dlq.Reprocess(ctx, id)
		if err != nil {
			fmt.Printf("failed to requeue job %d: %v\n", id, err)
			os.Exit(1)
		}
		fmt.Printf("DLQ entry %d requeued as job %d (%s)\n", id, job.ID, job.Type)

	case "drop":
		id := jobsArgID()
		if err := dlq.Delete(ctx, id); err != nil {
			fmt.Printf("failed to drop DLQ entry %d: %v\n", id, err)
			os.Exit(1)
		}
		fmt.Printf("DLQ entry %d dropped\n", id)

	case "prune":
		if err := dlq.Cleanup(ctx); err != nil {
			fmt.Printf("failed to prune dead letter queue: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("dead letter queue pruned")

	default:
		jobsUsage()
		os.Exit(1)
	}
}

func jobsArgID() int64 {
	if len(os.Args) < 4 {
		jobsUsage()
		os.Exit(1)
	}
	id, err := strconv.ParseInt(os.Args[3], 10, 64)
	if err != nil {
		fmt.Printf("invalid id %q\n", os.Args[3])
		os.Exit(1)
	}
	return id
}

func jobsUsage() {
	fmt.Println("Usage: jobs <list|stats|retry <id>|drop <id>|prune>")
}
