package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"tweeter/internal/presenter"
	"tweeter/internal/profile"
	"tweeter/internal/tweeter"
)

func TestRun_FollowFromFixtures(t *testing.T) {
	ctx := context.Background()
	fake := tweeter.NewFakeData()
	fake.AddSession("tok", "@dan")

	dan, _ := fake.FindUserByAlias(ctx, "tok", "@dan")
	toaster := profile.NewToaster(slog.New(slog.NewTextHandler(io.Discard, nil)))
	view := profile.NewView(presenter.NewSession(dan, "tok"), toaster, fake)

	var out bytes.Buffer
	in := strings.NewReader("view see @amy\nfollow\nself\nquit\n")

	if err := run(ctx, in, &out, view); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got := out.String()
	for _, want := range []string{"@amy", "[Follow]", "[Unfollow]", "Followers: 2", "Followees: 2 Followers: 0"} {
		if !strings.Contains(got, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, got)
		}
	}
	if view.Session().Mode() != presenter.ShowingCurrentUser {
		t.Error("Expected to be back on the logged in user")
	}
}

func TestRun_UnknownCommandPrintsUsage(t *testing.T) {
	fake := tweeter.NewFakeData()
	fake.AddSession("tok", "@dan")
	dan, _ := fake.FindUserByAlias(context.Background(), "tok", "@dan")
	view := profile.NewView(presenter.NewSession(dan, "tok"), profile.NewToaster(slog.New(slog.NewTextHandler(io.Discard, nil))), fake)

	var out bytes.Buffer
	if err := run(context.Background(), strings.NewReader("dance\n"), &out, view); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "commands:") {
		t.Errorf("Expected usage, got %q", out.String())
	}
}
