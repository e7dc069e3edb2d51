package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/stratusadmin/notify/pkg/center"
	"github.com/stratusadmin/notify/pkg/config"
	"github.com/stratusadmin/notify/pkg/gateway"
	"github.com/stratusadmin/notify/pkg/logger"
	"github.com/stratusadmin/notify/pkg/notification"
	"github.com/stratusadmin/notify/pkg/store"
	"github.com/stratusadmin/notify/pkg/transport"
)

// Config is read from the environment (or a local .env file).
type Config struct {
	APIBaseURL string        `env:"NOTIFY_API_URL,required"`
	WSEndpoint string        `env:"NOTIFY_WS_URL,required"`
	Token      string        `env:"NOTIFY_TOKEN,required"`
	PageSize   int           `env:"NOTIFY_PAGE_SIZE" envDefault:"20"`
	LogLevel   slog.Level    `env:"NOTIFY_LOG_LEVEL" envDefault:"warn"`
	LogFormat  logger.Format `env:"NOTIFY_LOG_FORMAT" envDefault:"text"`
}

func main() {
	var cfg Config
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithFormat(cfg.LogFormat),
		logger.WithLevel(cfg.LogLevel),
		logger.WithOutput(os.Stderr),
	)
	logger.SetAsDefault(log)

	cmd := "watch"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := newCenter(cfg, log)
	defer c.Close()

	var err error
	switch cmd {
	case "watch":
		err = watch(ctx, c, cfg.Token)
	case "list":
		err = list(ctx, c, cfg.Token, args)
	case "mark-read":
		err = markRead(ctx, c, args)
	case "mark-all":
		c.MarkAllAsRead(ctx)
	case "broadcast":
		err = broadcast(ctx, c, args)
	default:
		err = fmt.Errorf("unknown command %q (want watch, list, mark-read, mark-all or broadcast)", cmd)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "notifywatch:", err)
		os.Exit(1)
	}
}

func newCenter(cfg Config, log *slog.Logger) *center.Center {
	st := store.New()
	gw := gateway.NewClient(cfg.APIBaseURL, func() string { return cfg.Token },
		gateway.WithLogger(log))

	factory := func(token transport.TokenFunc) center.Transport {
		return transport.NewClient(cfg.WSEndpoint, token, transport.WithLogger(log))
	}

	return center.New(st, gw, factory,
		center.WithAlerter(newTerminalAlerter(os.Stdout)),
		center.WithLogger(log),
		center.WithPageSize(cfg.PageSize),
	)
}

// watch connects the push transport, prints the current page, and then
// streams incoming notifications until interrupted.
func watch(ctx context.Context, c *center.Center, token string) error {
	c.SetToken(ctx, token)
	c.FetchPage(ctx, 1, false)

	printList(c.Store())
	fmt.Println(subtleStyle.Render("watching for notifications, ctrl-c to quit"))

	<-ctx.Done()
	return nil
}

// list prints one page of notifications and exits.
func list(ctx context.Context, c *center.Center, token string, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	unread := fs.Bool("unread", false, "only unread notifications")
	page := fs.Int("page", 1, "page to fetch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c.SetToken(ctx, token)
	c.FetchPage(ctx, *page, *unread)
	printList(c.Store())
	return nil
}

func markRead(ctx context.Context, c *center.Center, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: notifywatch mark-read <id>")
	}
	c.MarkAsRead(ctx, args[0])
	return nil
}

// broadcastFile is the YAML shape accepted by the broadcast command.
type broadcastFile struct {
	Type        string `yaml:"type"`
	Title       string `yaml:"title"`
	Message     string `yaml:"message"`
	Target      string `yaml:"target"`
	TargetValue string `yaml:"targetValue"`
}

// broadcast reads a message definition from a YAML file and sends it.
func broadcast(ctx context.Context, c *center.Center, args []string) error {
	fs := flag.NewFlagSet("broadcast", flag.ContinueOnError)
	file := fs.String("f", "", "YAML file describing the broadcast")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("usage: notifywatch broadcast -f <file.yaml>")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("failed to read broadcast file: %w", err)
	}

	var bf broadcastFile
	if err := yaml.Unmarshal(raw, &bf); err != nil {
		return fmt.Errorf("failed to parse broadcast file: %w", err)
	}

	_, err = c.Broadcast(ctx, notification.BroadcastRequest{
		Type:        notification.Type(bf.Type),
		Title:       bf.Title,
		Message:     bf.Message,
		Target:      notification.BroadcastTarget(bf.Target),
		TargetValue: bf.TargetValue,
	})
	return err
}

func printList(st *store.Store) {
	items := st.Notifications()
	if len(items) == 0 {
		fmt.Println(subtleStyle.Render("no notifications"))
		return
	}
	for _, n := range items {
		fmt.Println(renderNotification(n))
	}
	fmt.Println(renderSummary(st.UnreadCount(), st.CurrentPage(), st.TotalPages()))
}
