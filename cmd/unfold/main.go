package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/unfoldgql/unfold/internal/eventbus"
	"github.com/unfoldgql/unfold/internal/executor"
	"github.com/unfoldgql/unfold/internal/incremental"
	"github.com/unfoldgql/unfold/internal/introspection"
	"github.com/unfoldgql/unfold/internal/language"
	"github.com/unfoldgql/unfold/internal/otel"
	"github.com/unfoldgql/unfold/internal/reqid"
)

const rootUsage = `unfold: client-side GraphQL incremental delivery engine

USAGE:
  unfold <command> [flags]

COMMANDS:
  assemble             Assemble a chunked response stream into a result tree
  introspection-query  Print the introspection query assemble's schema expects
  help                 Show help for any command
`

const assembleUsage = `assemble FLAGS:
  -schema <file>        Introspection result JSON describing the endpoint (required)
  -query <file>         GraphQL document with exactly one operation (required)
  -variables <file>     JSON object with variable values
  -chunks <file>        NDJSON chunk stream, one JSON chunk per line (default: "-", stdin)
  -snapshots            Print a snapshot after every merged chunk, not just the final one
  -pretty               Pretty-print JSON output
  -otel.endpoint <addr> OTLP collector endpoint
  -otel.service <name>  OpenTelemetry service name (default: unfold)
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("unfold", flag.ContinueOnError)
	global.SetOutput(new(bytes.Buffer)) // silence automatic output
	if err := global.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, rootUsage)
		return err
	}
	remaining := global.Args()
	if len(remaining) == 0 {
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("missing command")
	}

	cmd := remaining[0]
	cmdArgs := remaining[1:]
	switch cmd {
	case "assemble":
		return cmdAssemble(cmdArgs)
	case "introspection-query":
		fmt.Print(introspection.Query)
		return nil
	case "help":
		return cmdHelp(cmdArgs)
	default:
		fmt.Fprint(os.Stderr, rootUsage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func cmdHelp(args []string) error {
	if len(args) == 0 {
		fmt.Print(rootUsage)
		return nil
	}
	switch args[0] {
	case "assemble":
		fmt.Print(assembleUsage)
	case "introspection-query":
		fmt.Println("introspection-query takes no flags")
	default:
		return fmt.Errorf("unknown help topic %q", args[0])
	}
	return nil
}

func cmdAssemble(args []string) error {
	schemaFile := ""
	queryFile := ""
	variablesFile := ""
	chunksFile := "-"
	snapshots := false
	pretty := false
	otelEndpoint := ""
	otelService := "unfold"

	fs := flag.NewFlagSet("assemble", flag.ContinueOnError)
	fs.SetOutput(new(bytes.Buffer))
	fs.StringVar(&schemaFile, "schema", schemaFile, "Introspection result JSON")
	fs.StringVar(&queryFile, "query", queryFile, "GraphQL document")
	fs.StringVar(&variablesFile, "variables", variablesFile, "JSON object with variable values")
	fs.StringVar(&chunksFile, "chunks", chunksFile, "NDJSON chunk stream")
	fs.BoolVar(&snapshots, "snapshots", snapshots, "Print a snapshot after every merged chunk")
	fs.BoolVar(&pretty, "pretty", pretty, "Pretty-print JSON output")
	fs.StringVar(&otelEndpoint, "otel.endpoint", otelEndpoint, "OTLP collector endpoint")
	fs.StringVar(&otelService, "otel.service", otelService, "OpenTelemetry service name")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(os.Stderr, assembleUsage)
		return err
	}
	if schemaFile == "" {
		fmt.Fprint(os.Stderr, assembleUsage)
		return fmt.Errorf("-schema is required")
	}
	if queryFile == "" {
		fmt.Fprint(os.Stderr, assembleUsage)
		return fmt.Errorf("-query is required")
	}

	schemaJSON, err := os.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	sch, err := introspection.BuildClientSchema(schemaJSON)
	if err != nil {
		return err
	}

	querySrc, err := os.ReadFile(queryFile)
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}
	doc, err := language.ParseQuery(string(querySrc))
	if err != nil {
		return fmt.Errorf("parse query: %w", err)
	}

	var variables map[string]any
	if variablesFile != "" {
		raw, err := os.ReadFile(variablesFile)
		if err != nil {
			return fmt.Errorf("read variables: %w", err)
		}
		if err := json.Unmarshal(raw, &variables); err != nil {
			return fmt.Errorf("parse variables: %w", err)
		}
	}

	var in io.Reader = os.Stdin
	if chunksFile != "-" {
		f, err := os.Open(chunksFile)
		if err != nil {
			return fmt.Errorf("open chunks: %w", err)
		}
		defer f.Close()
		in = f
	}

	eventbus.Use(eventbus.New())
	shutdown, err := otel.Setup(otelEndpoint, otelService)
	if err != nil {
		return fmt.Errorf("otel setup: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	ctx, _ := reqid.NewContext(context.Background())
	session := incremental.NewSession(sch, doc, variables)
	src := incremental.NewScanLines(in)

	for {
		raw, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			if session.State() != incremental.StateComplete {
				session.Close(ctx, nil)
			}
			break
		}
		if err != nil {
			session.Close(ctx, err)
			return err
		}

		chunk, err := incremental.DecodeChunk(raw)
		if err != nil {
			session.Close(ctx, err)
			return err
		}
		if err := session.Apply(ctx, chunk); err != nil {
			session.Close(ctx, err)
			return err
		}
		if snapshots {
			if err := printResult(session.Result(), pretty); err != nil {
				return err
			}
		}
		if session.State() == incremental.StateComplete {
			break
		}
	}

	if !snapshots {
		return printResult(session.Result(), pretty)
	}
	return nil
}

func printResult(res *executor.Result, pretty bool) error {
	var (
		out []byte
		err error
	)
	if pretty {
		out, err = json.MarshalIndent(res, "", "  ")
	} else {
		out, err = json.Marshal(res)
	}
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
