package cli

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/kubev2v/inventory-report/internal/config"
	"github.com/kubev2v/inventory-report/internal/pipeline"
	"github.com/kubev2v/inventory-report/internal/vsphere"
	"github.com/kubev2v/inventory-report/pkg/log"
	"github.com/kubev2v/inventory-report/pkg/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

type CollectOptions struct {
	config *config.Config
	envErr error
	out    io.Writer
}

func NewCollectOptions() *CollectOptions {
	cfg, err := config.New()
	if err != nil {
		cfg = &config.Config{
			BatchSize:  config.DefaultBatchSize,
			RetryCount: config.DefaultRetryCount,
			RetryDelay: config.DefaultRetryDelay,
			Workers:    config.DefaultWorkers,
			Insecure:   true,
			LogLevel:   config.DefaultLogLevel,
		}
	}
	return &CollectOptions{config: cfg, envErr: err, out: os.Stdout}
}

func NewCmdCollect() *cobra.Command {
	o := NewCollectOptions()
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect a vSphere inventory and write the reports",
		Example: "inventory-report collect " +
			"--endpoint vcenter.example.com " +
			"--credential-path ~/.vsphere/creds.json " +
			"--output-dir ./reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			o.out = cmd.OutOrStdout()
			return o.Run(cmd.Context(), args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		zap.S().Errorf("Invalid flags: %v", err)
		return config.NewErrConfiguration("%v", err)
	})
	o.Bind(cmd.Flags())
	return cmd
}

func (o *CollectOptions) Bind(fs *pflag.FlagSet) {
	c := o.config
	fs.StringVar(&c.Endpoint, "endpoint", c.Endpoint, "vCenter or ESXi host name or SDK URL")
	fs.StringVar(&c.OutputDir, "output-dir", c.OutputDir, "directory under which the timestamped run folder is created")
	fs.StringVar(&c.CredentialPath, "credential-path", c.CredentialPath, "JSON or YAML file holding username and password")
	fs.IntVar(&c.BatchSize, "batch-size", c.BatchSize, "number of entities processed per batch")
	fs.IntVar(&c.RetryCount, "retry-count", c.RetryCount, "connection retries after the first attempt")
	fs.DurationVar(&c.RetryDelay, "retry-delay", c.RetryDelay, "delay between connection attempts")
	fs.IntVar(&c.Workers, "workers", c.Workers, "number of batches processed concurrently")
	fs.BoolVar(&c.Insecure, "insecure", c.Insecure, "skip TLS certificate verification")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level: debug, info, warn or error")
}

func (o *CollectOptions) Validate() error {
	if o.envErr != nil {
		return o.envErr
	}
	return o.config.Validate()
}

// Run logs every fatal error before returning it. Once the run folder exists
// the log also goes to its log file.
func (o *CollectOptions) Run(ctx context.Context, args []string) error {
	if err := o.Validate(); err != nil {
		zap.S().Errorf("Invalid configuration: %v", err)
		return err
	}

	creds, err := config.LoadCredentials(o.config.CredentialPath)
	if err != nil {
		zap.S().Errorf("Invalid configuration: %v", err)
		return err
	}

	run, err := pipeline.NewRunContext(o.config.OutputDir, o.config.Endpoint, time.Now())
	if err != nil {
		zap.S().Errorf("Failed to prepare the output directory: %v", err)
		return err
	}

	logger := log.InitLog(log.ParseLevel(o.config.LogLevel), run.LogPath)
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	zap.S().Infof("Run folder: %s", run.Dir)
	zap.S().Debugf("Configuration: %s", o.config)

	connect := func(ctx context.Context) (pipeline.Session, error) {
		s, err := vsphere.Connect(ctx, o.config.Endpoint, creds, o.config.Insecure)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	orchestrator := pipeline.New(connect, run, pipeline.Options{
		BatchSize:  o.config.BatchSize,
		Workers:    o.config.Workers,
		RetryCount: o.config.RetryCount,
		RetryDelay: o.config.RetryDelay,
	}, metrics.NewRecorder())

	res, err := orchestrator.Run(ctx)
	if err != nil {
		zap.S().Errorf("Inventory run failed: %v", err)
		return err
	}

	return pipeline.PrintSummary(o.out, run, res)
}
