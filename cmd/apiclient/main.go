// Command apiclient drives the client library from the shell: it lists
// and creates users, downloads and uploads files, and prints the pin
// of a server's public key.
package main

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/adamwoolhether/apiclient/client"
	"github.com/adamwoolhether/apiclient/client/pinning"
	"github.com/adamwoolhether/apiclient/internal/config"
	"github.com/adamwoolhether/apiclient/internal/logging"
	"github.com/adamwoolhether/apiclient/internal/users"
)

const usage = `usage: apiclient [-config file] [-mock] <command> [flags]

commands:
  users        list users (-q name filters)
  create-user  create a user (-name, -email)
  download     save a URL to disk (-url, -out, -sha256)
  upload       POST a file as the raw body (-url, -file, -type)
  multipart    POST a file as multipart/form-data (-url, -file, -field, -F key=value)
  pin          print the public key pin of host:port
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("apiclient", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to TOML config file (optional)")
	mock := fs.Bool("mock", false, "answer user commands from canned data")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	if fs.NArg() == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]

	// pin needs neither config nor a client.
	if cmd == "pin" {
		return runPin(ctx, cmdArgs, stdout)
	}

	bootstrap := slog.New(slog.NewTextHandler(stderr, nil))
	cfg, err := config.Load(*configPath, bootstrap)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	c, err := client.Build(cfg.ClientOptions(logger)...)
	if err != nil {
		return fmt.Errorf("building client: %w", err)
	}
	logger.Debug("client ready", "base_url", cfg.BaseURL, "backend", cfg.Backend, "pinned", c.Pinned())

	var repo users.Repository = users.NewAPIRepository(c)
	if *mock {
		repo = users.NewMockRepository(users.Success)
	}

	switch cmd {
	case "users":
		return runUsers(ctx, repo, cmdArgs, stdout)
	case "create-user":
		return runCreateUser(ctx, repo, cmdArgs, stdout)
	case "download":
		return runDownload(ctx, c, cmdArgs, stdout)
	case "upload":
		return runUpload(ctx, c, cmdArgs, stdout)
	case "multipart":
		return runMultipart(ctx, c, logger, cmdArgs, stdout)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func runUsers(ctx context.Context, repo users.Repository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	query := fs.String("q", "", "filter by name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	env, err := repo.FetchUsers(ctx, *query)
	if err != nil {
		return err
	}

	return printJSON(stdout, env)
}

func runCreateUser(ctx context.Context, repo users.Repository, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	name := fs.String("name", "", "user name")
	email := fs.String("email", "", "user email")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	var req users.CreateUserRequest
	if *name != "" {
		req.Name = name
	}
	if *email != "" {
		req.Email = email
	}

	env, err := repo.CreateUser(ctx, req)
	if err != nil {
		return err
	}

	return printJSON(stdout, env)
}

func runDownload(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	rawURL := fs.String("url", "", "absolute URL to fetch")
	out := fs.String("out", "", "destination path")
	sum := fs.String("sha256", "", "expected hex SHA-256 of the body")
	progress := fs.Bool("progress", false, "log download progress")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *rawURL == "" || *out == "" {
		return fmt.Errorf("%w: -url and -out are required", errUsage)
	}

	var opts []client.DownloadOption
	if *sum != "" {
		opts = append(opts, client.WithChecksum(sha256.New(), *sum))
	}
	if *progress {
		opts = append(opts, client.WithProgress())
	}

	path, err := c.Download(ctx, *rawURL, *out, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, path)
	return nil
}

func runUpload(ctx context.Context, c *client.Client, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	rawURL := fs.String("url", "", "absolute URL to POST to")
	file := fs.String("file", "", "file to send")
	contentType := fs.String("type", "", "Content-Type, detected when empty")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *rawURL == "" || *file == "" {
		return fmt.Errorf("%w: -url and -file are required", errUsage)
	}

	resp, err := client.Upload[json.RawMessage](ctx, c, *rawURL, client.FromFile(*file, *contentType), nil)
	if err != nil {
		return err
	}

	return printJSON(stdout, resp)
}

// formFields collects repeated -F key=value flags.
type formFields []client.Field

func (f *formFields) String() string { return fmt.Sprint(*f) }

func (f *formFields) Set(v string) error {
	name, value, ok := strings.Cut(v, "=")
	if !ok || name == "" {
		return fmt.Errorf("field %q is not key=value", v)
	}
	*f = append(*f, client.Field{Name: name, Value: value})
	return nil
}

func runMultipart(ctx context.Context, c *client.Client, logger *slog.Logger, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("multipart", flag.ContinueOnError)
	rawURL := fs.String("url", "", "absolute URL to POST to")
	file := fs.String("file", "", "file to attach")
	field := fs.String("field", "file", "form field name of the file")
	var fields formFields
	fs.Var(&fields, "F", "extra text field as key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if *rawURL == "" {
		return fmt.Errorf("%w: -url is required", errUsage)
	}

	form := client.Form{Fields: fields}
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			return fmt.Errorf("reading %s: %w", *file, err)
		}
		form.Files = append(form.Files, client.File{
			Data:      data,
			FieldName: *field,
			FileName:  filepath.Base(*file),
		})
	}

	task := client.StartUploadMultipart[json.RawMessage](ctx, c, *rawURL, form, nil)

	last := time.Now()
	for p := range task.Progress() {
		if p == 1 || time.Since(last) > 500*time.Millisecond {
			logger.Info("upload progress", "percent", fmt.Sprintf("%.0f%%", p*100))
			last = time.Now()
		}
	}

	resp, err := task.Wait()
	if err != nil {
		return err
	}

	return printJSON(stdout, resp)
}

func runPin(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("pin", flag.ContinueOnError)
	timeout := fs.Duration("timeout", 10*time.Second, "dial timeout")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: pin takes exactly one host:port", errUsage)
	}

	addr := fs.Arg(0)
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	// Report whatever key is presented; the chain is not verified.
	d := tls.Dialer{Config: &tls.Config{ServerName: host, InsecureSkipVerify: true}}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()

	certs := conn.(*tls.Conn).ConnectionState().PeerCertificates
	if len(certs) == 0 {
		return pinning.ErrEmptyChain
	}

	hash, err := pinning.KeyHash(certs[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, hash)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
