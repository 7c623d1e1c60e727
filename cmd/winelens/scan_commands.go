package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"winelens/internal/recognizer"
	"winelens/internal/scan"
	"winelens/internal/wine"
)

type scanFlags struct {
	backend    string
	jsonOutput bool
	label      string
	latitude   float64
	longitude  float64
}

func (f *scanFlags) location() *wine.Location {
	if f.label == "" && f.latitude == 0 && f.longitude == 0 {
		return nil
	}
	return &wine.Location{Label: f.label, Latitude: f.latitude, Longitude: f.longitude}
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	flags := &scanFlags{}
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Recognize wines from a photo or recorded frames",
	}
	scanCmd.PersistentFlags().StringVar(&flags.backend, "recognizer", recognizer.BackendJSON, "Recognizer backend (json or tesseract)")
	scanCmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "Output results as JSON")
	scanCmd.PersistentFlags().StringVar(&flags.label, "location", "", "Label recorded on a new session")
	scanCmd.PersistentFlags().Float64Var(&flags.latitude, "lat", 0, "Latitude recorded on a new session")
	scanCmd.PersistentFlags().Float64Var(&flags.longitude, "lon", 0, "Longitude recorded on a new session")

	scanCmd.AddCommand(newScanPhotoCommand(ctx, flags))
	scanCmd.AddCommand(newScanFramesCommand(ctx, flags))
	return scanCmd
}

func newScanPhotoCommand(ctx *commandContext, flags *scanFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "photo <file>",
		Short: "Recognize a single photo and add its wines to the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read photo: %w", err)
			}
			return runTracker(cmd, ctx, flags, nil, func(tracker *scan.Tracker, _ scan.Options) (func() error, error) {
				detections, err := tracker.ProcessPhoto(cmd.Context(), data)
				if err != nil {
					return nil, err
				}
				session := tracker.Session()
				return func() error {
					if flags.jsonOutput {
						return writeJSON(cmd, detections)
					}
					out := cmd.OutOrStdout()
					if len(detections) == 0 {
						fmt.Fprintln(out, "No wine entries recognized")
						return nil
					}
					fmt.Fprintln(out, renderTable(wineColumns, wineRows(detections, time.Now()), wineFooter(detections)...))
					fmt.Fprintf(out, "Session %s now lists %d wines\n", session.ID, len(session.Wines))
					return nil
				}, nil
			})
		},
	}
}

func newScanFramesCommand(ctx *commandContext, flags *scanFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "frames <dir>",
		Short: "Replay recorded recognizer frames through the live tracker",
		Long: "Replays every *.json frame in dir in name order. Frame timestamps drive the " +
			"tracker clock, so debouncing and overlay expiry behave as they did at capture time.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := recognizer.ReadFrameDir(args[0])
			if err != nil {
				return err
			}
			clock := &replayClock{}
			return runTracker(cmd, ctx, flags, clock.Now, func(tracker *scan.Tracker, opts scan.Options) (func() error, error) {
				if err := tracker.Start(); err != nil {
					return nil, err
				}
				var accepted, skipped int
				for _, file := range files {
					frame, err := recognizer.DecodeFrame(file.Data)
					if err != nil {
						return nil, fmt.Errorf("%s: %w", file.Path, err)
					}
					clock.Advance(frame.CapturedAt, opts.FrameInterval)
					if !tracker.SubmitFrame(file.Data) {
						skipped++
						continue
					}
					accepted++
					if err := tracker.Drain(cmd.Context()); err != nil {
						return nil, err
					}
				}
				if err := tracker.Stop(); err != nil {
					return nil, err
				}
				session := tracker.Session()
				return func() error {
					if flags.jsonOutput {
						return writeJSON(cmd, session)
					}
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Replayed %d frames (%d skipped by debounce)\n", accepted, skipped)
					if len(session.Wines) > 0 {
						fmt.Fprintln(out, renderTable(wineColumns, wineRows(session.Wines, time.Now()), wineFooter(session.Wines)...))
					}
					return nil
				}, nil
			})
		},
	}
}

// runTracker wires a tracker for one command, keeps the match index
// checkpointed while it runs, and echoes session events. fn returns the
// renderer for its final output, called after the event stream is drained.
func runTracker(cmd *cobra.Command, ctx *commandContext, flags *scanFlags, clock func() time.Time,
	fn func(*scan.Tracker, scan.Options) (func() error, error)) error {
	svc, err := ctx.openServices(true)
	if err != nil {
		return err
	}
	defer svc.Close()

	rec, closeRec, err := recognizer.FromConfig(svc.cfg, flags.backend)
	if err != nil {
		return err
	}
	defer closeRec()

	runCtx, cancel := context.WithCancel(cmd.Context())
	checkpoints := make(chan struct{})
	go func() {
		defer close(checkpoints)
		svc.index.RunCheckpoints(runCtx, svc.cfg.CheckpointInterval())
	}()
	defer func() {
		cancel()
		<-checkpoints
	}()

	opts := scan.OptionsFromConfig(svc.cfg)
	opts.Location = flags.location()
	if clock != nil {
		opts.Clock = clock
	}
	tracker := scan.New(rec, svc.matcher, svc.sessions, opts, svc.logger)

	echoed := make(chan struct{})
	go func() {
		defer close(echoed)
		var out io.Writer = io.Discard
		if !flags.jsonOutput {
			out = cmd.ErrOrStderr()
		}
		for ev := range tracker.Events() {
			printEvent(out, ev)
		}
	}()

	render, runErr := fn(tracker, opts)
	_ = tracker.Close()
	<-echoed
	if runErr != nil {
		return runErr
	}
	return render()
}

func printEvent(out io.Writer, ev scan.Event) {
	switch ev.Type {
	case scan.EventNewMatch:
		fmt.Fprintf(out, "+ %s (%s, %.2f)\n", wineName(ev.Wine), ev.Wine.Match.Tier, ev.Wine.Match.Confidence)
	case scan.EventUpdated:
		fmt.Fprintf(out, "~ %s (%s, %.2f)\n", wineName(ev.Wine), ev.Wine.Match.Tier, ev.Wine.Match.Confidence)
	}
}

// replayClock follows recorded capture times.
type replayClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *replayClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		return time.Now()
	}
	return c.now
}

// Advance moves to capturedAt, or by step when the frame carries no time.
func (c *replayClock) Advance(capturedAt time.Time, step time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case !capturedAt.IsZero():
		c.now = capturedAt
	case c.now.IsZero():
		c.now = time.Now()
	default:
		c.now = c.now.Add(max(step, time.Millisecond))
	}
}
