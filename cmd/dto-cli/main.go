package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	jsoniter "github.com/json-iterator/go"

	"github.com/goliatone/go-dto/internal/prompt"
	"github.com/goliatone/go-dto/pkg/openapi"
	"github.com/goliatone/go-dto/pkg/payload"
	"github.com/goliatone/go-dto/pkg/schemafile"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type config struct {
	schema      string
	openapi     string
	payloadName string
	input       string
	restore     string
	save        string
	output      string
	strict      bool
	interactive bool
	allFields   bool
	indent      int
	sortKeys    bool
	escapeHTML  bool
	accessible  bool
	describe    bool
	list        bool
	verbose     bool
}

func main() {
	ctx := context.Background()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "dto-cli: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (config, error) {
	var cfg config
	fs := flag.NewFlagSet("dto-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.schema, "schema", "", "payload schema file or directory (JSON or YAML)")
	fs.StringVar(&cfg.openapi, "openapi", "", "OpenAPI document path or URL; components become payloads")
	fs.StringVar(&cfg.payloadName, "payload", "", "payload name to build")
	fs.StringVar(&cfg.input, "input", "", "input document (JSON or YAML), - for stdin")
	fs.StringVar(&cfg.restore, "restore", "", "restore the payload from a binary blob instead of importing input")
	fs.StringVar(&cfg.save, "save", "", "write the payload as a binary blob to this file")
	fs.StringVar(&cfg.output, "output", "", "output file (stdout if empty)")
	fs.BoolVar(&cfg.strict, "strict", false, "fail on undeclared or rejected input keys")
	fs.BoolVar(&cfg.interactive, "interactive", false, "prompt for missing required fields")
	fs.BoolVar(&cfg.allFields, "all", false, "with -interactive, prompt for every accessible field")
	fs.IntVar(&cfg.indent, "indent", 0, "indent JSON output by this many spaces")
	fs.BoolVar(&cfg.sortKeys, "sort", false, "sort JSON object keys")
	fs.BoolVar(&cfg.escapeHTML, "escape-html", false, "escape HTML characters in JSON strings")
	fs.BoolVar(&cfg.accessible, "accessible", false, "export accessible fields only")
	fs.BoolVar(&cfg.describe, "describe", false, "print the payload declaration as an OpenAPI schema")
	fs.BoolVar(&cfg.list, "list", false, "list the available payload names")
	fs.BoolVar(&cfg.verbose, "verbose", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return config{}, err
	}
	if (cfg.schema == "") == (cfg.openapi == "") {
		return config{}, errors.New("exactly one of -schema or -openapi is required")
	}
	if !cfg.list && cfg.payloadName == "" {
		return config{}, errors.New("-payload is required")
	}
	if cfg.input != "" && cfg.restore != "" {
		return config{}, errors.New("-input and -restore are mutually exclusive")
	}
	return cfg, nil
}

func newLogger(w io.Writer, verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	allow := level.AllowInfo()
	if verbose {
		allow = level.AllowDebug()
	}
	logger = level.NewFilter(logger, allow)
	return log.With(logger, "ts", log.DefaultTimestampUTC)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	logger := newLogger(stderr, cfg.verbose)

	src, err := openSource(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if cfg.list {
		for _, name := range src.names() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	}

	m, err := src.build(cfg.payloadName)
	if err != nil {
		return err
	}
	if cfg.describe {
		out, err := json.MarshalIndent(openapi.Describe(m), "", "  ")
		if err != nil {
			return fmt.Errorf("describe %s: %w", cfg.payloadName, err)
		}
		return writeOutput(cfg.output, stdout, append(out, '\n'))
	}

	if err := load(cfg, stdin, m); err != nil {
		return err
	}
	if cfg.interactive {
		filler := prompt.New(prompt.WithAllFields(cfg.allFields), prompt.WithLogger(logger))
		if err := filler.Fill(ctx, m); err != nil {
			return fmt.Errorf("interactive: %w", err)
		}
	}
	if err := m.Validate(); err != nil {
		level.Info(logger).Log("msg", "payload rejected", "payload", m.Name(), "err", err)
		return fmt.Errorf("validate %s: %w", m.Name(), err)
	}
	level.Debug(logger).Log("msg", "payload valid", "payload", m.Name())

	if cfg.save != "" {
		blob, err := m.MarshalBinary()
		if err != nil {
			return fmt.Errorf("persist %s: %w", m.Name(), err)
		}
		if err := os.WriteFile(cfg.save, blob, 0o644); err != nil {
			return fmt.Errorf("write blob: %w", err)
		}
		level.Info(logger).Log("msg", "blob written", "payload", m.Name(), "path", cfg.save)
	}

	values := m.ToArray()
	if cfg.accessible {
		values = m.ExportAccessible()
	}
	out, err := payload.EncodeJSON(m.Name(), values, jsonOptions(cfg)...)
	if err != nil {
		return err
	}
	return writeOutput(cfg.output, stdout, append(out, '\n'))
}

func jsonOptions(cfg config) []payload.JSONOption {
	var opts []payload.JSONOption
	if cfg.indent > 0 {
		opts = append(opts, payload.WithIndent(cfg.indent))
	}
	if cfg.sortKeys {
		opts = append(opts, payload.WithSortedKeys())
	}
	if cfg.escapeHTML {
		opts = append(opts, payload.WithEscapeHTML())
	}
	return opts
}

// payloadSource builds payload maps by name from a schema catalog or an
// OpenAPI document.
type payloadSource struct {
	names func() []string
	build func(name string) (*payload.Map, error)
}

func openSource(ctx context.Context, cfg config, logger log.Logger) (payloadSource, error) {
	opts := []payload.Option{payload.WithLogger(logger)}
	if cfg.openapi != "" {
		src := openapi.ParseSource(cfg.openapi)
		doc, err := openapi.NewLoader(openapi.WithHTTPFallback(0)).Load(ctx, src)
		if err != nil {
			return payloadSource{}, err
		}
		return payloadSource{
			names: doc.ComponentNames,
			build: func(name string) (*payload.Map, error) {
				schema, err := doc.Component(name)
				if err != nil {
					return nil, err
				}
				return openapi.NewMap(name, schema, opts...)
			},
		}, nil
	}

	catalog, err := loadCatalog(cfg.schema, schemafile.WithPayloadOptions(opts...))
	if err != nil {
		return payloadSource{}, err
	}
	catalog.RegisterTypes()
	return payloadSource{
		names: catalog.Names,
		build: func(name string) (*payload.Map, error) { return catalog.New(name) },
	}, nil
}

func loadCatalog(path string, opts ...schemafile.Option) (*schemafile.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return schemafile.LoadFS(os.DirFS(path), opts...)
	}
	return schemafile.LoadFile(path, opts...)
}

func load(cfg config, stdin io.Reader, m *payload.Map) error {
	switch {
	case cfg.restore != "":
		blob, err := os.ReadFile(cfg.restore)
		if err != nil {
			return fmt.Errorf("read blob: %w", err)
		}
		return m.UnmarshalBinary(blob)
	case cfg.input != "":
		values, err := readInput(cfg.input, stdin)
		if err != nil {
			return err
		}
		return m.ImportArray(values, !cfg.strict)
	default:
		return nil
	}
}

func readInput(path string, stdin io.Reader) (*payload.Values, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	trimmed := bytes.TrimSpace(data)
	if ext == ".yaml" || ext == ".yml" || (ext != ".json" && len(trimmed) > 0 && trimmed[0] != '{') {
		return schemafile.DecodeYAML(data)
	}
	values := payload.NewValues()
	if err := values.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decode input: %w", err)
	}
	return values, nil
}

func writeOutput(path string, stdout io.Writer, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
