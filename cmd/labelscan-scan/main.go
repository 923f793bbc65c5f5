// Command labelscan-scan runs the detection pipeline once over label
// text from a file, an argument, or stdin and prints the report as JSON
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"labelscan/internal/core/vocab"
	"labelscan/internal/platform/logger"
	"labelscan/internal/services/detect/domain"
	"labelscan/internal/services/detect/service"
)

func main() {
	var (
		file    = flag.String("file", "", "read label text from this file instead of args/stdin")
		spans   = flag.String("spans", "", "optional JSON array of recognizer spans to merge")
		compact = flag.Bool("compact", false, "print compact JSON instead of indented")
	)
	flag.Parse()

	text, err := readText(*file, flag.Args())
	if err != nil {
		log.Fatalf("read input: %v", err)
	}

	pack, err := vocab.Load()
	if err != nil {
		log.Fatalf("vocab.Load: %v", err)
	}

	in := domain.DetectInput{Text: text}
	if *spans != "" {
		if err := json.Unmarshal([]byte(*spans), &in.Recognizer); err != nil {
			log.Fatalf("bad -spans: %v", err)
		}
	}

	svc := service.New(pack, nil, nil, *logger.Named("scan"))
	res, err := svc.Detect(context.Background(), in)
	if err != nil {
		log.Fatalf("detect: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	if !*compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(res); err != nil {
		log.Fatalf("encode: %v", err)
	}
}

// readText resolves input precedence: -file, then args joined, then stdin
func readText(file string, args []string) (string, error) {
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	fi, err := os.Stdin.Stat()
	if err == nil && (fi.Mode()&os.ModeCharDevice) != 0 {
		return "", fmt.Errorf("no input: pass text as arguments, -file, or pipe stdin")
	}
	b, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
