package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tweeter/internal/client"
	"tweeter/internal/config"
	"tweeter/internal/consul"
	"tweeter/internal/logger"
	"tweeter/internal/presenter"
	"tweeter/internal/profile"
	"tweeter/internal/tweeter"

	_ "github.com/joho/godotenv/autoload"
)

const usage = `commands:
  show              reload the displayed profile
  view <text>       display the user whose @alias appears in text
  follow            follow the displayed user
  unfollow          unfollow the displayed user
  self              return to the logged in user
  quit
`

// dataSource picks the server the presenters talk to: the built-in fixtures,
// an explicit FOLLOW_SERVICE_URL, or an instance discovered through Consul
func dataSource(ctx context.Context, log *slog.Logger) (presenter.Server, tweeter.AuthToken, error) {
	token := tweeter.AuthToken(os.Getenv("AUTH_TOKEN"))

	if config.GetEnvBool("PROFILE_FAKE_DATA", false) {
		fake := tweeter.NewFakeData()
		if token == "" {
			token = "fake-token"
		}
		fake.AddSession(token, config.GetEnvOrDefault("CURRENT_ALIAS", "@allen"))
		log.Info("Using fixture data", "aliases", strings.Join(fake.Aliases(), ","))
		return fake, token, nil
	}

	if token == "" {
		return nil, "", errors.New("AUTH_TOKEN is required")
	}

	if url := os.Getenv("FOLLOW_SERVICE_URL"); url != "" {
		return client.New(url), token, nil
	}

	cc, err := consul.NewClient(config.GetEnvOrDefault("CONSUL_HTTP_ADDR", "localhost:8500"), os.Getenv("CONSUL_HTTP_TOKEN"))
	if err != nil {
		return nil, "", err
	}
	instance, err := cc.DiscoverOne(ctx, "follow-service")
	if err != nil {
		return nil, "", err
	}
	log.Info("Discovered follow service", "url", instance.URL())
	return client.New(instance.URL()), token, nil
}

func run(ctx context.Context, in io.Reader, out io.Writer, view *profile.View) error {
	view.Show(ctx)
	if err := view.Render(out); err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		switch cmd {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "show":
			view.Show(ctx)
		case "view":
			if err := view.Navigate(ctx, arg); err != nil {
				continue
			}
		case "follow":
			if _, err := view.FollowDisplayedUser(ctx); errors.Is(err, presenter.ErrActionInFlight) {
				fmt.Fprintln(out, "still working...")
			}
		case "unfollow":
			if _, err := view.UnfollowDisplayedUser(ctx); errors.Is(err, presenter.ErrActionInFlight) {
				fmt.Fprintln(out, "still working...")
			}
		case "self":
			view.SwitchToLoggedInUser(ctx)
		default:
			fmt.Fprint(out, usage)
			continue
		}

		if err := view.Render(out); err != nil {
			return err
		}
	}
}

func main() {
	log := logger.NewWithWriter(os.Stderr, "profile")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server, token, err := dataSource(ctx, log)
	if err != nil {
		log.Error("Failed to configure data source", "error", err)
		os.Exit(1)
	}

	alias := config.GetEnvOrDefault("CURRENT_ALIAS", "@allen")
	current, err := server.FindUserByAlias(ctx, token, alias)
	if err != nil {
		log.Error("Failed to load logged in user", "alias", alias, "error", err)
		os.Exit(1)
	}
	if current == nil {
		log.Error("Logged in user not found", "alias", alias)
		os.Exit(1)
	}

	view := profile.NewView(presenter.NewSession(current, token), profile.NewToaster(log), server)

	if err := run(ctx, os.Stdin, os.Stdout, view); err != nil {
		log.Error("Profile session ended with error", "error", err)
		os.Exit(1)
	}
}
