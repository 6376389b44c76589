package main

import (
	"context"
	"io"
	"os"
	"syscall"

	"github.com/bottlerocket-os/switchdog/pkg/agent"
	"github.com/bottlerocket-os/switchdog/pkg/config"
	"github.com/bottlerocket-os/switchdog/pkg/fetch"
	"github.com/bottlerocket-os/switchdog/pkg/logging"
	"github.com/bottlerocket-os/switchdog/pkg/metrics"
	"github.com/bottlerocket-os/switchdog/pkg/platform"
	"github.com/bottlerocket-os/switchdog/pkg/platform/switchtool"
	"github.com/bottlerocket-os/switchdog/pkg/schedule"
	"github.com/bottlerocket-os/switchdog/pkg/sigcontext"
	"github.com/bottlerocket-os/switchdog/pkg/workgroup"
	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logging.New("main").WithError(err).Error("switchdog stopped")
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "switchdog",
		Usage:   "converge this host onto the image named by its remote configuration",
		Version: version,
		Flags:   flags(),
		Before: func(*cli.Context) error {
			// Dispatch logging output instead of writing all levels'
			// messages to stderr.
			logging.Set(logging.Output(io.Discard))
			for _, hook := range splitHooks(os.Stdout, os.Stderr) {
				logging.Set(logging.Hook(hook))
			}
			return nil
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logging.Set(logging.Level(cfg.LogLevel))
	log := logging.New("main")

	// "debuggable" builds at runtime produce extensive logging output compared
	// to release builds with the debug level set.
	if logging.Debuggable {
		log.Info("low-level logging.Debuggable is enabled in this build")
		log.Warn("logging.Debuggable produces large volumes of logs")
	}

	once := c.Bool("once")
	if once {
		_, err = cfg.FetchTimeout()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return err
	}
	timeout, _ := cfg.FetchTimeout()

	plat, err := switchtool.New(logging.New("platform"), cfg.SwitchCommand, cfg.BinPath)
	if err != nil {
		return errors.WithMessage(err, "could not setup platform for agent")
	}
	if err := platform.Ping(plat); err != nil {
		log.WithError(err).Warn("switch tool is not available, runs will fail until it is installed")
	}

	lock, err := acquireLock(cfg.ConfigPath)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	m := metrics.New()
	a, err := agent.New(logging.New("agent"), cfg.Agent(),
		fetch.New(logging.New("fetch"), timeout), plat,
		agent.WithMetrics(m))
	if err != nil {
		return errors.WithMessage(err, "initialization error")
	}

	ctx, cancel := sigcontext.WithSignalCancel(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if once {
		image, err := a.Process(ctx)
		if err != nil {
			return errors.WithMessage(err, "run error")
		}
		log.WithField("image", image).Info("update run complete")
		return nil
	}
	return errors.WithMessage(serve(ctx, log, cfg, a, m), "run error")
}

func serve(ctx context.Context, log logging.Logger, cfg config.Config, a *agent.Agent, m *metrics.Metrics) error {
	sched, err := schedule.New(logging.New("schedule"), cfg.Schedule, a.Tick)
	if err != nil {
		return err
	}

	group := workgroup.WithContext(ctx)
	group.Work(sched.Run)
	if cfg.MetricsListen != "" {
		log.WithField("address", cfg.MetricsListen).Info("serving metrics")
		group.Work(func(ctx context.Context) error {
			return m.Serve(ctx, cfg.MetricsListen)
		})
	}

	if sent, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.WithError(err).Warn("unable to notify systemd")
	} else if sent {
		log.Debug("notified systemd")
	}

	err = group.Wait()
	log.Info("workers finished")
	return err
}

// stringSetting binds a flag to a Config field. Flags only override the
// file and defaults when set on the command line or through the environment.
type stringSetting struct {
	name  string
	env   string
	usage string
	field func(*config.Config) *string
}

var settings = []stringSetting{
	{"endpoint", "ENDPOINT", "URL of the configuration document",
		func(c *config.Config) *string { return &c.Endpoint }},
	{"service-key", "SERVICE_KEY", "key id used to sign requests",
		func(c *config.Config) *string { return &c.ServiceKey }},
	{"service-secret", "SERVICE_SECRET", "secret used to sign requests, signing is off when empty",
		func(c *config.Config) *string { return &c.ServiceSecret }},
	{"service-name", "SERVICE_NAME", "service label in the signature scope",
		func(c *config.Config) *string { return &c.ServiceName }},
	{"region", "SERVICE_REGION", "region label in the signature scope",
		func(c *config.Config) *string { return &c.Region }},
	{"bin-path", "BIN_PATH", "search path for the switch tool",
		func(c *config.Config) *string { return &c.BinPath }},
	{"switch-command", "SWITCH_COMMAND", "name of the switch tool",
		func(c *config.Config) *string { return &c.SwitchCommand }},
	{"config-path", "CONFIG_PATH", "directory holding the commit token",
		func(c *config.Config) *string { return &c.ConfigPath }},
	{"schedule", "SCHEDULE", "cron expression, seconds field optional",
		func(c *config.Config) *string { return &c.Schedule }},
	{"log-level", "LOG_LEVEL", "logging level",
		func(c *config.Config) *string { return &c.LogLevel }},
	{"timeout", "FETCH_TIMEOUT", "timeout for fetching the configuration document",
		func(c *config.Config) *string { return &c.Timeout }},
	{"metrics-listen", "METRICS_LISTEN", "address to serve metrics on, off when empty",
		func(c *config.Config) *string { return &c.MetricsListen }},
}

func flags() []cli.Flag {
	defaults := config.Defaults()
	fs := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "TOML configuration file",
			EnvVars: []string{"SWITCHDOG_CONFIG"},
			Value:   config.DefaultFile,
		},
		&cli.BoolFlag{
			Name:  "once",
			Usage: "run the workflow once and exit",
		},
	}
	for _, s := range settings {
		f := &cli.StringFlag{
			Name:    s.name,
			Usage:   s.usage,
			EnvVars: []string{s.env},
		}
		if v := *s.field(&defaults); v != "" {
			f.DefaultText = v
		}
		fs = append(fs, f)
	}
	return fs
}

// loadConfig layers the config file over the defaults and the flags and
// environment over the file.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Defaults()
	if err := config.LoadFile(c.String("config"), &cfg); err != nil {
		return cfg, err
	}
	for _, s := range settings {
		if c.IsSet(s.name) {
			*s.field(&cfg) = c.String(s.name)
		}
	}
	return cfg, nil
}
