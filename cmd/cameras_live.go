package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"guardly-cli/internal/livefeed"
)

var (
	framesDir    string
	liveDuration time.Duration
)

var camerasLiveCmd = &cobra.Command{
	Use:   "live",
	Short: "Follow the live feed of a camera",
	Long: `Connects to the camera's live WebSocket and prints connection state, motion
alerts and a clock tick every second until interrupted. With --frames-dir every
received frame is written to disk.`,
	Run: func(cmd *cobra.Command, args []string) {
		api, s, log := setup()

		url, err := api.LiveURL(cameraID)
		must(err, "building live URL")

		if framesDir != "" {
			must(os.MkdirAll(framesDir, 0o755), "creating frames directory")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if liveDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, liveDuration)
			defer cancel()
		}

		opts := feedOptions(s, log)
		opts.Camera = strconv.FormatInt(cameraID, 10)
		feed := livefeed.Dial(ctx, url, opts)
		defer feed.Close()

		fmt.Printf("Connecting to %s (Ctrl+C to stop)\n", url)
		frames := 0
		for ev := range feed.Events() {
			stamp := ev.Time.Format(time.TimeOnly)
			switch ev.Kind {
			case livefeed.EventState:
				if ev.Err != nil {
					fmt.Printf("[%s] %s: %v\n", stamp, ev.State, ev.Err)
				} else {
					fmt.Printf("[%s] %s\n", stamp, ev.State)
				}
			case livefeed.EventMotion:
				if ev.Motion {
					fmt.Printf("[%s] MOTION DETECTED\n", stamp)
				} else {
					fmt.Printf("[%s] motion cleared\n", stamp)
				}
			case livefeed.EventTick:
				fmt.Printf("[%s]\n", stamp)
			case livefeed.EventMalformed:
				fmt.Printf("[%s] ignored malformed message: %v\n", stamp, ev.Err)
			case livefeed.EventFrame:
				frames++
				if framesDir != "" {
					must(writeFrame(framesDir, frames, ev.Frame), "writing frame")
				}
			}
		}

		fmt.Printf("%d frame(s) received, %d dropped\n", frames, feed.DroppedFrames())
		if err := feed.Err(); err != nil && ctx.Err() == nil {
			must(err, "following live feed")
		}
	},
}

func writeFrame(dir string, n int, frame []byte) error {
	ext := ".jpg"
	if http.DetectContentType(frame) == "image/png" {
		ext = ".png"
	}
	return os.WriteFile(filepath.Join(dir, fmt.Sprintf("frame-%06d%s", n, ext)), frame, 0o644)
}

func init() {
	camerasCmd.AddCommand(camerasLiveCmd)
	camerasLiveCmd.Flags().Int64Var(&cameraID, "id", 0, "Camera ID")
	camerasLiveCmd.Flags().StringVar(&framesDir, "frames-dir", "", "Directory to save received frames into")
	camerasLiveCmd.Flags().DurationVar(&liveDuration, "duration", 0, "Stop after this long (default: until interrupted)")
	_ = camerasLiveCmd.MarkFlagRequired("id")
}
