package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wetrycode/responder"
	"github.com/wetrycode/responder/metric"
	"github.com/wetrycode/responder/service"
	"github.com/wetrycode/responder/transport"
)

var cmdLog = responder.GetLogger("cmd")

type serveOptions struct {
	config         string
	code           string
	status         string
	headers        []string
	body           string
	sendIdent      string
	sendType       string
	recvIdent      string
	recvType       string
	adminHost      string
	adminPort      int
	errorResponses bool
	blockTimeout   time.Duration
}

type adminSettings struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type influxdbSettings struct {
	Server   string        `mapstructure:"server"`
	Token    string        `mapstructure:"token"`
	Bucket   string        `mapstructure:"bucket"`
	Org      string        `mapstructure:"org"`
	Interval time.Duration `mapstructure:"interval"`
}

type metricSettings struct {
	Influxdb influxdbSettings `mapstructure:"influxdb"`
}

type deviceSettings struct {
	ErrorResponses bool `mapstructure:"error_responses"`
}

// serveSettings settings.yaml中除response之外的部分
type serveSettings struct {
	Transport transport.ConnectionSpec `mapstructure:"transport"`
	Redis     *transport.RedisConfig   `mapstructure:"redis"`
	Admin     adminSettings            `mapstructure:"admin"`
	Metric    metricSettings           `mapstructure:"metric"`
	Device    deviceSettings           `mapstructure:"device"`
}

// servePlan 合并配置文件和命令行参数之后的运行参数
type servePlan struct {
	response       *responder.ResponseConfig
	spec           transport.ConnectionSpec
	redis          *transport.RedisConfig
	admin          adminSettings
	influxdb       influxdbSettings
	errorResponses bool
	blockTimeout   time.Duration
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve send_spec [recv_spec]",
		Short: "Receive requests from recv_spec and send the canned response to send_spec",
		Long: `Receive requests from recv_spec and send the canned response to send_spec.
recv_spec defaults to send_spec, both take the form redis://host:port[/db][#key].
Header values and the body may contain %(KEY)s placeholders which are filled from
the request headers plus PREFIX and MATCH.`,
		Args:         cobra.RangeArgs(1, 2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.config != "" {
				if err := responder.LoadSettingsFile(opts.config); err != nil {
					return err
				}
			}
			settings := responder.Config
			if settings == nil {
				settings = responder.NewConfiguration()
			}
			plan, err := buildServePlan(cmd.Flags(), opts, args, settings)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, plan)
		},
	}
	bindServeFlags(cmd.Flags(), opts)
	return cmd
}

func bindServeFlags(flags *pflag.FlagSet, opts *serveOptions) {
	flags.StringVarP(&opts.config, "config", "c", "", "settings file, default ./settings.yaml")
	flags.StringVar(&opts.code, "code", "", "response status code, default 200")
	flags.StringVar(&opts.status, "status", "", "response status text, default OK")
	flags.StringArrayVar(&opts.headers, "header", nil, "response header NAME=VALUE, repeatable; --header-NAME=VALUE is accepted too")
	flags.StringVar(&opts.body, "body", "", "response body template")
	flags.StringVar(&opts.sendIdent, "send-ident", "", "identity stamped on every response")
	flags.StringVar(&opts.sendType, "send-type", "", "send socket type: list or pubsub")
	flags.StringVar(&opts.recvIdent, "recv-ident", "", "identity registered as request consumer")
	flags.StringVar(&opts.recvType, "recv-type", "", "recv socket type: list or pubsub")
	flags.StringVar(&opts.adminHost, "admin-host", "0.0.0.0", "admin api and grpc health host")
	flags.IntVar(&opts.adminPort, "admin-port", 0, "admin api and grpc health port, 0 disables it")
	flags.BoolVar(&opts.errorResponses, "error-responses", false, "reply 400/500 to requests that cannot be formatted instead of dropping them")
	flags.DurationVar(&opts.blockTimeout, "block-timeout", time.Second, "single BRPOP block timeout")
}

func loadServeSettings(c *responder.Configuration) (*serveSettings, error) {
	s := &serveSettings{
		Redis: transport.NewRedisConfig(),
		Admin: adminSettings{Host: "0.0.0.0"},
		Metric: metricSettings{
			Influxdb: influxdbSettings{Interval: 10 * time.Second},
		},
	}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := c.Unmarshal(s, hook); err != nil {
		return nil, &responder.ConfigurationError{Field: "settings", Value: c.ConfigFileUsed(), Err: err}
	}
	return s, nil
}

// buildResponseConfig 命令行参数覆盖配置文件中的response段
// 指定--header时替换配置文件中的全部响应头
func buildResponseConfig(flags *pflag.FlagSet, opts *serveOptions, c *responder.Configuration) (*responder.ResponseConfig, error) {
	base, err := responder.ResponseConfigFromSettings(c)
	if err != nil {
		return nil, err
	}
	var code interface{} = base.Code()
	if flags.Changed("code") {
		code = opts.code
	}
	status := base.Status()
	if flags.Changed("status") {
		status = opts.status
	}
	headers := base.Headers()
	if flags.Changed("header") {
		headers = make([]responder.HeaderTemplate, 0, len(opts.headers))
		for _, arg := range opts.headers {
			header, err := parseHeaderArg(arg)
			if err != nil {
				return nil, err
			}
			headers = append(headers, header)
		}
	}
	body := base.Body()
	if flags.Changed("body") {
		body = opts.body
	}
	return responder.NewResponseConfig(code, status, headers, body)
}

func buildServePlan(flags *pflag.FlagSet, opts *serveOptions, args []string, c *responder.Configuration) (*servePlan, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, &responder.ConfigurationError{Field: "args", Value: args, Err: errors.New("expected send_spec [recv_spec]")}
	}
	settings, err := loadServeSettings(c)
	if err != nil {
		return nil, err
	}
	response, err := buildResponseConfig(flags, opts, c)
	if err != nil {
		return nil, err
	}
	spec := settings.Transport
	spec.SendSpec = args[0]
	spec.RecvSpec = ""
	if len(args) == 2 {
		spec.RecvSpec = args[1]
	}
	override := func(name string, target *string, value string) {
		if flags.Changed(name) {
			*target = value
		}
	}
	override("send-ident", &spec.SendIdent, opts.sendIdent)
	override("send-type", &spec.SendType, opts.sendType)
	override("recv-ident", &spec.RecvIdent, opts.recvIdent)
	override("recv-type", &spec.RecvType, opts.recvType)

	admin := settings.Admin
	override("admin-host", &admin.Host, opts.adminHost)
	if flags.Changed("admin-port") {
		admin.Port = opts.adminPort
	}
	errorResponses := settings.Device.ErrorResponses
	if flags.Changed("error-responses") {
		errorResponses = opts.errorResponses
	}
	return &servePlan{
		response:       response,
		spec:           spec,
		redis:          settings.Redis,
		admin:          admin,
		influxdb:       settings.Metric.Influxdb,
		errorResponses: errorResponses,
		blockTimeout:   opts.blockTimeout,
	}, nil
}

// serve 运行响应循环,以及可选的管理端口和指标采集,任意一个退出时全部退出
func serve(ctx context.Context, plan *servePlan) error {
	conn, err := transport.NewConnection(ctx, plan.spec,
		transport.RedisConnectionWithRedisConfig(plan.redis),
		transport.RedisConnectionWithBlockTimeout(plan.blockTimeout))
	if err != nil {
		return err
	}
	defer conn.Close()

	hooks := service.NewHealthHooks()
	device := responder.NewDevice(plan.response,
		responder.DeviceWithErrorResponses(plan.errorResponses),
		responder.DeviceWithEventHooks(hooks))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p := pool.New().WithErrors()
	p.Go(func() error {
		defer cancel()
		err := device.Run(ctx, conn)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if plan.admin.Port > 0 {
		server := service.NewServer(device, plan.admin.Host, plan.admin.Port, hooks)
		p.Go(func() error {
			defer cancel()
			return server.Start(ctx)
		})
	}
	if plan.influxdb.Server != "" {
		collector := metric.NewDeviceMetricCollector(plan.influxdb.Server, plan.influxdb.Token, plan.influxdb.Bucket, plan.influxdb.Org, device)
		defer collector.Close()
		p.Go(func() error {
			return collector.Start(ctx, plan.influxdb.Interval)
		})
	}
	cmdLog.Infof("responder serving %s -> %s", recvSpecOf(plan.spec), plan.spec.SendSpec)
	return p.Wait()
}

func recvSpecOf(spec transport.ConnectionSpec) string {
	if spec.RecvSpec == "" {
		return spec.SendSpec
	}
	return spec.RecvSpec
}
