package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"minibot-bridge-go/internal/output"
)

func main() {
	var (
		path  = flag.String("path", "", "Path to a frame log .bin file")
		limit = flag.Int("limit", 0, "Max records to print (0 = all)")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal("path is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open frame log: %v", err)
	}
	defer f.Close()

	count := 0
	var totalBytes int
	err = output.ReadFrameLog(f, func(record output.FrameRecord) bool {
		count++
		totalBytes += len(record.Data)
		if *limit == 0 || count <= *limit {
			fmt.Printf("record %d step=%d time=%s dtype=%s shape=%v bytes=%d\n",
				count-1,
				record.Step,
				time.Unix(0, record.UnixNano).Format(time.RFC3339Nano),
				record.Dtype,
				record.Shape,
				len(record.Data),
			)
		}
		return true
	})
	if err != nil {
		log.Fatalf("read frame log: %v", err)
	}
	fmt.Printf("summary: records=%d payload_bytes=%d\n", count, totalBytes)
}
