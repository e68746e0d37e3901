package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/example/activity-booking/internal/config"
	"github.com/example/activity-booking/internal/schedule"
	"github.com/example/activity-booking/internal/testfixtures"
)

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestResolveCommand(t *testing.T) {
	path := testfixtures.WriteScheduleFile(t, testfixtures.NewScheduleConfig())

	out, err := executeCommand(t, "resolve", "--schedule", path, "--date", "2024-03-04")
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	want := "run_2024-03-04\tMorning run\t2024-03-04 07:00-08:00\tcapacity 8\n"
	if out != want {
		t.Fatalf("unexpected output %q, want %q", out, want)
	}

	if _, err := executeCommand(t, "resolve", "--schedule", path, "--date", "2024-03-03"); !errors.Is(err, errNoRule) {
		t.Fatalf("expected errNoRule for a Sunday, got %v", err)
	}
	if _, err := executeCommand(t, "resolve", "--schedule", path, "--date", "March 4"); err == nil {
		t.Fatalf("expected error for malformed date")
	}
}

func TestResolveCommand_ScheduleTimezone(t *testing.T) {
	cfg := testfixtures.NewScheduleConfig(
		testfixtures.WithTimezone("Asia/Tokyo"),
		testfixtures.WithRules(schedule.Rule{
			ID:         "swim",
			Title:      "Lunch swim",
			DaysOfWeek: []schedule.Weekday{schedule.Monday},
			StartTime:  "12:00",
			EndTime:    "13:00",
			Capacity:   3,
		}),
	)
	path := testfixtures.WriteScheduleFile(t, cfg)

	out, err := executeCommand(t, "resolve", "--schedule", path, "--date", "2024-03-04", "--json")
	if err != nil {
		t.Fatalf("resolve returned error: %v", err)
	}
	var occ schedule.Occurrence
	if err := json.Unmarshal([]byte(out), &occ); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if occ.SessionID != "swim_2024-03-04" {
		t.Fatalf("unexpected session id %q", occ.SessionID)
	}
	if !strings.Contains(out, `"start": "2024-03-04T12:00:00+09:00"`) {
		t.Fatalf("expected start in the schedule timezone, got %s", out)
	}
}

func TestNextCommand(t *testing.T) {
	path := testfixtures.WriteScheduleFile(t, testfixtures.NewScheduleConfig())

	out, err := executeCommand(t, "next", "--schedule", path, "--from", "2024-03-08", "--json")
	if err != nil {
		t.Fatalf("next returned error: %v", err)
	}
	var occ schedule.Occurrence
	if err := json.Unmarshal([]byte(out), &occ); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	// Friday 2024-03-08 is excluded; the weekend has no rule.
	if occ.SessionID != "run_2024-03-11" {
		t.Fatalf("unexpected next occurrence %q", occ.SessionID)
	}

	if _, err := executeCommand(t, "next", "--schedule", path, "--from", "2024-03-08", "--horizon", "2"); !errors.Is(err, errNoRule) {
		t.Fatalf("expected errNoRule within a two day horizon, got %v", err)
	}
}

func TestUpcomingCommand(t *testing.T) {
	path := testfixtures.WriteScheduleFile(t, testfixtures.NewScheduleConfig())

	out, err := executeCommand(t, "upcoming", "--schedule", path, "--from", "2024-03-08", "--days", "4")
	if err != nil {
		t.Fatalf("upcoming returned error: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "run_2024-03-08\t") || !strings.HasPrefix(lines[1], "run_2024-03-11\t") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = executeCommand(t, "upcoming", "--schedule", path, "--from", "2024-03-04", "--days", "2", "--json")
	if err != nil {
		t.Fatalf("upcoming --json returned error: %v", err)
	}
	var occs []schedule.Occurrence
	if err := json.Unmarshal([]byte(out), &occs); err != nil {
		t.Fatalf("expected JSON array, got %q: %v", out, err)
	}
	if len(occs) != 2 || occs[1].SessionID != "yoga_2024-03-05" {
		t.Fatalf("unexpected occurrences %#v", occs)
	}

	if _, err := executeCommand(t, "upcoming", "--schedule", path, "--days", "0"); !errors.Is(err, schedule.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}

func TestCommandsRequireSchedule(t *testing.T) {
	t.Setenv("BOOKING_SCHEDULE_PATH", "")

	if _, err := executeCommand(t, "resolve", "--date", "2024-03-04"); err == nil {
		t.Fatalf("expected error without a schedule path")
	}

	broken := filepath.Join(t.TempDir(), "missing.json")
	if _, err := executeCommand(t, "next", "--schedule", broken); !errors.Is(err, schedule.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestNewHandler(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	schedulePath := testfixtures.WriteScheduleFile(t, testfixtures.NewScheduleConfig())
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())

	for _, driver := range []string{config.DriverMemory, config.DriverJSONFile, config.DriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			cfg := config.Config{
				StoreDriver:  driver,
				StorePath:    filepath.Join(dir, "bookings.json"),
				SQLitePath:   filepath.Join(dir, "bookings.db"),
				SchedulePath: schedulePath,
				HorizonDays:  14,
			}

			recorder := tracetest.NewSpanRecorder()
			tracing := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
			handler, closeStore, err := newHandler(context.Background(), cfg, logger, clock.NowFunc(), tracing)
			if err != nil {
				t.Fatalf("newHandler returned error: %v", err)
			}
			t.Cleanup(func() { _ = closeStore() })

			req := httptest.NewRequest(http.MethodPost, "/actions", strings.NewReader(`{"action":"book","sessionId":"run_2024-03-04","capacity":8}`))
			req.Header.Set("X-User-ID", "alice")
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok":true`) {
				t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
			}

			var names []string
			for _, span := range recorder.Ended() {
				names = append(names, span.Name())
			}
			if !slices.Contains(names, "booking.EnsureSession") || !slices.Contains(names, "booking.Book") {
				t.Fatalf("expected engine spans on the injected provider, got %v", names)
			}
		})
	}

	t.Run("fails on an invalid schedule", func(t *testing.T) {
		t.Parallel()

		cfg := config.Config{StoreDriver: config.DriverMemory, SchedulePath: filepath.Join(t.TempDir(), "nope.json")}
		if _, _, err := newHandler(context.Background(), cfg, logger, nil, nil); !errors.Is(err, schedule.ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("fails on an unknown driver", func(t *testing.T) {
		t.Parallel()

		cfg := config.Config{StoreDriver: "postgres", SchedulePath: schedulePath}
		if _, _, err := newHandler(context.Background(), cfg, logger, nil, nil); err == nil {
			t.Fatalf("expected error for unknown driver")
		}
	})
}

func TestEnvironMap(t *testing.T) {
	t.Parallel()

	got := environMap([]string{"A=1", "B=x=y", "broken"})
	if len(got) != 2 || got["A"] != "1" || got["B"] != "x=y" {
		t.Fatalf("unexpected map %v", got)
	}
}
