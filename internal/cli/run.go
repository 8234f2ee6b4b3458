package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/flowctl/internal/config"
	"github.com/me/flowctl/internal/inputs"
	"github.com/me/flowctl/internal/loader"
	"github.com/me/flowctl/internal/scriptmode"
	"github.com/me/flowctl/internal/storage"
	"github.com/me/flowctl/internal/store"
	"github.com/me/flowctl/pkg/workflow"
)

// runOptions holds everything parsed from the run command line.
type runOptions struct {
	reference      string
	remote         bool
	wait           bool
	project        string
	domain         string
	destinationDir string
	images         []string
	extra          []string // raw --name value pairs resolved as workflow inputs
	help           bool
}

func newRunCmd(cfg config.PlatformConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file.js>:<workflow> [flags] [--input value ...]",
		Short: "Run a workflow from a single script file",
		Long: `Script mode: load a workflow from a self-contained script file and run it.

Without --remote the workflow executes locally and its result is printed.
With --remote the script is hashed and uploaded, the workflow is registered
with the orchestration service, and an execution is triggered.

Flags the command does not recognize are resolved as workflow inputs
against the workflow's declared interface, e.g.:

    flowctl run my_flow.js:greet --remote --name alice --count 3`,
		// Unrecognized flags become typed workflow inputs, so flag
		// parsing is done by hand in parseRunArgs.
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := parseRunArgs(args, cfg)
			if err != nil {
				return err
			}
			if opts.help {
				return cmd.Help()
			}
			initRuntime()
			return runWorkflow(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	return cmd
}

// parseRunArgs separates the positional reference and the command's own
// flags from the raw workflow-input pairs. Tokens the command does not
// recognize are kept in order for the input resolver.
func parseRunArgs(args []string, cfg config.PlatformConfig) (*runOptions, error) {
	opts := &runOptions{
		project:        cfg.Project,
		domain:         cfg.Domain,
		destinationDir: "/root",
	}

	value := func(i int, name string) (string, error) {
		if i+1 >= len(args) {
			return "", &workflow.ValidationError{Message: fmt.Sprintf("flag %s requires a value", name)}
		}
		return args[i+1], nil
	}

	for i := 0; i < len(args); i++ {
		var err error
		switch a := args[i]; a {
		case "--remote":
			opts.remote = true
		case "--wait":
			opts.wait = true
		case "-h", "--help":
			opts.help = true
			return opts, nil
		case "-p", "--project":
			if opts.project, err = value(i, a); err != nil {
				return nil, err
			}
			i++
		case "-d", "--domain":
			if opts.domain, err = value(i, a); err != nil {
				return nil, err
			}
			i++
		case "--destination-dir":
			if opts.destinationDir, err = value(i, a); err != nil {
				return nil, err
			}
			i++
		case "-i", "--image":
			img, err := value(i, a)
			if err != nil {
				return nil, err
			}
			opts.images = append(opts.images, img)
			i++
		// Global flags arrive unparsed here because flag parsing is
		// disabled for this command; apply them to the shared flag set.
		case "--endpoint":
			if flagEndpoint, err = value(i, a); err != nil {
				return nil, err
			}
			i++
		case "--debug":
			flagDebug = true
		case "--log-level":
			if flagLogLevel, err = value(i, a); err != nil {
				return nil, err
			}
			i++
		case "--log-format":
			if flagLogFormat, err = value(i, a); err != nil {
				return nil, err
			}
			i++
		default:
			if strings.HasPrefix(a, "--") {
				// Workflow input pair: keep the flag and, when
				// present, its value. A dangling flag is reported
				// by the resolver.
				opts.extra = append(opts.extra, a)
				if i+1 < len(args) {
					opts.extra = append(opts.extra, args[i+1])
					i++
				}
				continue
			}
			if opts.reference != "" {
				return nil, &workflow.ValidationError{Message: fmt.Sprintf("unexpected argument %q", a)}
			}
			opts.reference = a
		}
	}

	if opts.reference == "" {
		return nil, &workflow.ValidationError{Message: "missing <file>:<workflow> argument"}
	}
	return opts, nil
}

func runWorkflow(ctx context.Context, out io.Writer, opts *runOptions) error {
	// The reference is validated before any module loading happens.
	ref, err := workflow.ParseReference(opts.reference)
	if err != nil {
		return err
	}

	images, err := workflow.ValidateImages(opts.images)
	if err != nil {
		return err
	}

	// The script is assumed self-contained, so loading it only needs the
	// working directory on the search path for the duration of the import.
	l := loader.New(workflow.SerializationSettings{}, logger)
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	restore := l.PushSearchPath(cwd)
	defer restore()

	module := ref.Module()
	if err := l.ImportModule(module); err != nil {
		return err
	}
	entity, err := l.LoadWorkflow(module + "." + ref.Workflow)
	if err != nil {
		return err
	}

	if !opts.remote {
		return runLocal(ctx, out, entity, opts)
	}
	return runRemote(ctx, out, entity, images, opts)
}

// runLocal resolves inputs against local staging (structured datasets
// become file:// URIs) and executes the workflow body in-process.
func runLocal(ctx context.Context, out io.Writer, entity *workflow.Entity, opts *runOptions) error {
	if entity.Run == nil {
		return fmt.Errorf("workflow %s has no run function", entity.QualifiedName())
	}

	stagingDir, err := os.MkdirTemp("", "flowctl-staging-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}

	n := 0
	upload := func(ctx context.Context) (workflow.UploadLocation, error) {
		n++
		uri := "file://" + filepath.Join(stagingDir, fmt.Sprintf("dataset-%d", n))
		return workflow.UploadLocation{NativeURL: uri, SignedURL: uri}, nil
	}
	put := func(ctx context.Context, localPath, signedURL string) error {
		return copyFile(localPath, strings.TrimPrefix(signedURL, "file://"))
	}

	args, err := inputs.Resolve(ctx, opts.extra, entity.Interface, upload, put)
	if err != nil {
		return err
	}

	logger.Info("running workflow locally", "workflow", entity.QualifiedName())
	result, err := entity.Run(args)
	if err != nil {
		return err
	}
	return printResult(out, result)
}

// runRemote registers the script in script mode and triggers a remote
// execution: resolve inputs, hash the script, acquire an upload location
// for the archive, register, execute.
func runRemote(ctx context.Context, out io.Writer, entity *workflow.Entity, images workflow.ImageConfig, opts *runOptions) error {
	uploader := storage.NewUploader()

	upload := func(ctx context.Context) (workflow.UploadLocation, error) {
		return client.CreateUploadLocation(ctx, opts.project, opts.domain, "dataset")
	}
	args, err := inputs.Resolve(ctx, opts.extra, entity.Interface, upload, uploader.PutData)
	if err != nil {
		return err
	}

	version, err := scriptmode.HashScriptFile(entity.Filename)
	if err != nil {
		return err
	}
	logger.Debug("script version", "workflow", entity.QualifiedName(), "version", version)

	loc, err := client.CreateUploadLocation(ctx, opts.project, opts.domain, scriptmode.ArchiveSuffix(version))
	if err != nil {
		return err
	}

	settings := workflow.SerializationSettings{
		Images: images,
		Fast: workflow.FastSettings{
			Enabled:              true,
			DestinationDir:       opts.destinationDir,
			DistributionLocation: loc.NativeURL,
		},
	}

	logger.Info("registering workflow", "workflow", entity.QualifiedName(), "version", version)
	wf, err := client.RegisterWorkflowScriptMode(ctx, entity, settings, version, loc.SignedURL)
	if err != nil {
		return err
	}

	exec, err := client.CreateExecution(ctx, wf.ID, args, opts.project, opts.domain)
	if err != nil {
		return err
	}
	recordRun(ctx, exec)

	if opts.wait {
		if exec, err = client.WaitExecution(ctx, exec.Name); err != nil {
			return err
		}
		recordRun(ctx, exec)
	}

	fmt.Fprintf(out, "Execution created: %s (phase: %s)\n", exec.Name, exec.Phase)
	if len(exec.Outputs) > 0 {
		return printResult(out, exec.Outputs)
	}
	return nil
}

// recordRun appends the execution to the local history. History is a
// convenience; failures are logged and never fail the run.
func recordRun(ctx context.Context, exec workflow.Execution) {
	path, err := config.HistoryDBPath()
	if err != nil {
		logger.Warn("history unavailable", "error", err)
		return
	}
	h, err := store.Open(path, logger)
	if err != nil {
		logger.Warn("history unavailable", "error", err)
		return
	}
	defer h.Close()

	if err := h.Migrate(ctx); err != nil {
		logger.Warn("history migrate failed", "error", err)
		return
	}

	createdAt := exec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	err = h.Record(ctx, store.Run{
		Execution: exec.Name,
		Workflow:  exec.Workflow,
		Version:   exec.Version,
		Project:   exec.Project,
		Domain:    exec.Domain,
		Phase:     exec.Phase,
		CreatedAt: createdAt,
	})
	if err != nil {
		logger.Warn("history record failed", "execution", exec.Name, "error", err)
	}
}

// printResult writes a workflow result to out: strings verbatim,
// everything else as indented JSON.
func printResult(out io.Writer, result any) error {
	if s, ok := result.(string); ok {
		fmt.Fprintln(out, s)
		return nil
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("format result: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// copyFile copies src to dst, creating parent directories as needed.
func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
