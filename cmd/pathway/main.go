/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/term"

	"pathway/internal/catalog"
	"pathway/internal/config"
	"pathway/internal/crash"
	"pathway/internal/glyph"
	applog "pathway/internal/log"
	"pathway/internal/pathjson"
	"pathway/internal/svg"
	"pathway/internal/vector"
	"pathway/internal/version"
)

// errUsage marks bad command lines; run prints usage and exits with 2.
var errUsage = errors.New("usage")

func usage(w io.Writer) {
	_, _ = fmt.Fprintf(w, "%s\n\n", version.String())
	_, _ = fmt.Fprintln(w, "Usage:")
	_, _ = fmt.Fprintln(w, "  pathway version|-v|--version              Show version")
	_, _ = fmt.Fprintln(w, "  pathway svg <doc.json> [--data]           Print the path as SVG (or raw path data)")
	_, _ = fmt.Fprintln(w, "  pathway split <doc.json>                  Print one path data line per contour")
	_, _ = fmt.Fprintln(w, "  pathway count <doc.json>                  Print raw and iterated segment counts")
	_, _ = fmt.Fprintln(w, "  pathway glyph <text> [ppem] [--font f]    Print text outlined as SVG (Go Regular unless --font)")
	_, _ = fmt.Fprintln(w, "  pathway catalog put <name> <doc.json>     Store a path in the catalog")
	_, _ = fmt.Fprintln(w, "  pathway catalog get <name> [--data|--json] Print a stored path as SVG, path data or JSON")
	_, _ = fmt.Fprintln(w, "  pathway catalog list                      List stored paths")
	_, _ = fmt.Fprintln(w, "  pathway catalog rm <name>                 Delete a stored path")
	_, _ = fmt.Fprintln(w, "  pathway config show                       Print settings, marking env overrides")
	_, _ = fmt.Fprintln(w, "  pathway config set <key> <value>          Change a setting in the config file")
	_, _ = fmt.Fprintln(w, "  pathway config set-password [password]    Store the catalog password in the keyring")
	_, _ = fmt.Fprintln(w, "  pathway config clear-password             Remove the catalog password from the keyring")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	defer crash.Recover("")

	code := run(os.Args[1:], os.Stdout)
	_ = applog.Close()
	if code != 0 {
		os.Exit(code)
	}
}

// run executes one command and returns the process exit code.
func run(args []string, stdout io.Writer) int {
	l := applog.WithComponent("cli")
	if len(args) == 0 {
		usage(stdout)
		return 2
	}
	switch args[0] {
	case "version", "--version", "-v":
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	case "help", "--help", "-h":
		usage(stdout)
		return 0
	}

	// config must work while the file is invalid, so it skips Load
	if args[0] == "config" {
		return exitCode(l, args[0], configCmd(args[1:], stdout))
	}

	cfg, secret, err := config.Load()
	if err != nil {
		l.Error("load config failed", slog.Any("err", err))
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	applog.Init(cfg.Logging.Options())
	l = applog.WithComponent("cli")
	l.Debug("start", slog.String("cmd", args[0]), slog.Int("args", len(args)))

	a := app{cfg: cfg, secret: secret, out: stdout}
	switch args[0] {
	case "svg":
		err = a.svg(args[1:])
	case "split":
		err = a.split(args[1:])
	case "count":
		err = a.count(args[1:])
	case "glyph":
		err = a.glyph(args[1:])
	case "catalog":
		err = a.catalog(args[1:])
	default:
		err = fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
	return exitCode(l, args[0], err)
}

func exitCode(l *slog.Logger, cmd string, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintln(os.Stderr, err)
		usage(os.Stderr)
		return 2
	default:
		l.Error("command failed", slog.String("cmd", cmd), slog.Any("err", err))
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
}

type app struct {
	cfg    config.AppConfig
	secret string
	out    io.Writer
}

func (a app) svgOptions() []svg.Option {
	return []svg.Option{svg.WithTolerance(a.cfg.Iterator.Tolerance)}
}

func readDoc(path string) (*vector.Path, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()
	p, err := pathjson.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// boolFlag removes every occurrence of name from args.
func boolFlag(args []string, name string) ([]string, bool) {
	rest := make([]string, 0, len(args))
	found := false
	for _, a := range args {
		if a == name {
			found = true
			continue
		}
		rest = append(rest, a)
	}
	return rest, found
}

// valueFlag removes "name value" from args.
func valueFlag(args []string, name string) ([]string, string, error) {
	for i, a := range args {
		if a != name {
			continue
		}
		if i+1 >= len(args) {
			return nil, "", fmt.Errorf("%w: %s needs a value", errUsage, name)
		}
		rest := append(append([]string(nil), args[:i]...), args[i+2:]...)
		return rest, args[i+1], nil
	}
	return args, "", nil
}

func (a app) writeShape(s svg.Shape, dataOnly bool) error {
	document := a.cfg.SVG.Document && !dataOnly
	if err := svg.Write(a.out, s, document, a.svgOptions()...); err != nil {
		return err
	}
	if !document {
		_, _ = fmt.Fprintln(a.out)
	}
	return nil
}

func (a app) svg(args []string) error {
	args, data := boolFlag(args, "--data")
	if len(args) != 1 {
		return fmt.Errorf("%w: svg requires <doc.json>", errUsage)
	}
	p, err := readDoc(args[0])
	if err != nil {
		return err
	}
	return a.writeShape(p, data)
}

func (a app) split(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: split requires <doc.json>", errUsage)
	}
	p, err := readDoc(args[0])
	if err != nil {
		return err
	}
	it, err := vector.NewIterator(p, vector.WithConicEvaluation(vector.AsQuadratics), vector.WithTolerance(a.cfg.Iterator.Tolerance))
	if err != nil {
		return err
	}
	defer it.Close()
	parts, err := vector.Divide(it, nil)
	if err != nil {
		return fmt.Errorf("split: %w", err)
	}
	for _, part := range parts {
		d, err := svg.PathData(part, a.svgOptions()...)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(a.out, d)
	}
	return nil
}

func (a app) count(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: count requires <doc.json>", errUsage)
	}
	p, err := readDoc(args[0])
	if err != nil {
		return err
	}
	it, err := vector.NewIterator(p, a.cfg.Iterator.Options()...)
	if err != nil {
		return err
	}
	defer it.Close()
	raw, err := it.RawSize()
	if err != nil {
		return err
	}
	n, err := it.Size()
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.out, "raw %d\n%s %d\n", raw, it.ConicEvaluation(), n)
	return nil
}

func (a app) glyph(args []string) error {
	args, fontFile, err := valueFlag(args, "--font")
	if err != nil {
		return err
	}
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: glyph requires <text> [ppem] [--font file]", errUsage)
	}
	ppem := float32(64)
	if len(args) == 2 {
		v, err := strconv.ParseFloat(args[1], 32)
		if err != nil {
			return fmt.Errorf("%w: ppem %q", errUsage, args[1])
		}
		ppem = float32(v)
	}
	f, err := glyph.Default()
	if fontFile != "" {
		f, err = loadFont(fontFile)
	}
	if err != nil {
		return err
	}
	o, err := glyph.Text(f, args[0], ppem)
	if err != nil {
		return err
	}
	return a.writeShape(o, false)
}

// loadFont registers a font file in a fresh library, keyed by its path.
func loadFont(path string) (*sfnt.Font, error) {
	lib := glyph.NewLibrary()
	const weight = 400
	if err := lib.LoadFile(path, weight, false, path); err != nil {
		return nil, err
	}
	f, ok := lib.Find(path, weight, false)
	if !ok {
		return nil, fmt.Errorf("font %s not registered", path)
	}
	return f, nil
}

func (a app) openCatalog(ctx context.Context) (*catalog.Catalog, error) {
	dsn, err := a.cfg.CatalogDSN()
	if err != nil {
		return nil, err
	}
	if a.cfg.Catalog.Driver == "pgx" {
		dsn = catalog.DSNWithPassword(dsn, a.secret)
	}
	return catalog.Open(ctx, a.cfg.Catalog.Driver, dsn, catalog.WithTolerance(a.cfg.Iterator.Tolerance))
}

func (a app) catalog(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: catalog requires put|get|list|rm", errUsage)
	}
	sub, args := args[0], args[1:]
	args, data := boolFlag(args, "--data")
	args, asJSON := boolFlag(args, "--json")
	if (data || asJSON) && sub != "get" {
		return fmt.Errorf("%w: --data and --json only apply to catalog get", errUsage)
	}
	if data && asJSON {
		return fmt.Errorf("%w: --data and --json are exclusive", errUsage)
	}
	want := map[string]int{"put": 2, "get": 1, "list": 0, "rm": 1}
	n, ok := want[sub]
	if !ok {
		return fmt.Errorf("%w: unknown catalog command %q", errUsage, sub)
	}
	if len(args) != n {
		return fmt.Errorf("%w: catalog %s takes %d argument(s)", errUsage, sub, n)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	c, err := a.openCatalog(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := c.Close(); err != nil {
			applog.WithComponent("cli").Warn("close catalog", slog.Any("err", err))
		}
	}()

	switch sub {
	case "put":
		p, err := readDoc(args[1])
		if err != nil {
			return err
		}
		e, err := c.Put(ctx, args[0], p)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "stored %s (%d segments)\n", e.Name, e.Segments)
	case "get":
		e, err := c.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if data {
			_, _ = fmt.Fprintln(a.out, e.Data)
			return nil
		}
		p, err := e.Path()
		if err != nil {
			return err
		}
		if asJSON {
			return pathjson.Encode(a.out, p)
		}
		return a.writeShape(p, false)
	case "list":
		entries, err := c.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "NAME\tFILL\tSEGMENTS\tUPDATED")
		for _, e := range entries {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Name, e.FillRule, e.Segments, e.UpdatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	case "rm":
		if err := c.Delete(ctx, args[0]); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.out, "removed %s\n", args[0])
	}
	return nil
}

func configCmd(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: config requires show|set|set-password|clear-password", errUsage)
	}
	log := applog.WithOperation(applog.WithComponent("cli"), "config")
	switch sub, args := args[0], args[1:]; sub {
	case "show":
		if len(args) != 0 {
			return fmt.Errorf("%w: config show takes no arguments", errUsage)
		}
		cfg, secret, err := config.Load()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 1, ' ', 0)
		for _, k := range config.Keys() {
			v, err := cfg.Value(k)
			if err != nil {
				return err
			}
			line := fmt.Sprintf("%s\t= %s", k, v)
			if env, ok := config.EnvOverrideFor(k); ok {
				line += fmt.Sprintf("\t(env %s)", env)
			}
			_, _ = fmt.Fprintln(tw, line)
		}
		state := "unset"
		if secret != "" {
			state = "set"
		}
		_, _ = fmt.Fprintf(tw, "catalog.password\t= (%s)\n", state)
		return tw.Flush()
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("%w: config set requires <key> <value>", errUsage)
		}
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			if errors.Is(err, config.ErrUnknownKey) {
				return fmt.Errorf("%w: %v (keys: %s)", errUsage, err, strings.Join(config.Keys(), ", "))
			}
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := config.Save(cfg, ""); err != nil {
			return err
		}
		v, _ := cfg.Value(args[0])
		log.Info("setting saved", slog.String("key", args[0]))
		_, _ = fmt.Fprintf(out, "%s = %s\n", args[0], v)
		if env, ok := config.EnvOverrideFor(args[0]); ok {
			_, _ = fmt.Fprintf(out, "note: %s overrides this value\n", env)
		}
	case "set-password":
		if len(args) > 1 {
			return fmt.Errorf("%w: config set-password takes at most one argument", errUsage)
		}
		var pw string
		if len(args) == 1 {
			pw = args[0]
		} else {
			var err error
			if pw, err = readPassword(os.Stdin); err != nil {
				return err
			}
		}
		if pw == "" {
			return errors.New("empty password")
		}
		cfg, err := config.LoadFile()
		if err != nil {
			return err
		}
		if err := config.Save(cfg, pw); err != nil {
			return err
		}
		log.Info("catalog password stored")
		_, _ = fmt.Fprintln(out, "catalog password stored")
	case "clear-password":
		if len(args) != 0 {
			return fmt.Errorf("%w: config clear-password takes no arguments", errUsage)
		}
		if err := config.ClearSecret(); err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, "catalog password removed")
	default:
		return fmt.Errorf("%w: unknown config command %q", errUsage, sub)
	}
	return nil
}

// readPassword prompts without echo on a terminal and reads one line otherwise.
func readPassword(in *os.File) (string, error) {
	if term.IsTerminal(int(in.Fd())) {
		_, _ = fmt.Fprint(os.Stderr, "Catalog password: ")
		b, err := term.ReadPassword(int(in.Fd()))
		_, _ = fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
