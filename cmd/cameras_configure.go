package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"guardly-cli/internal/livefeed"
	"guardly-cli/internal/zone"
	"guardly-cli/pkg/models"
)

var (
	zoneRect    string
	zoneHours   string
	zoneFile    string
	stillOut    string
	captureWait time.Duration
)

// zoneDoc is the layout of a --zone-file:
//
//	rect: {x: 10, y: 20, width: 120, height: 80}
//	hours: "08-18"
type zoneDoc struct {
	Rect  models.Rect `yaml:"rect"`
	Hours string      `yaml:"hours"`
}

var camerasConfigureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Capture a still from the live feed and save a detection zone on it",
	Long: `Opens the camera's live feed, captures the next frame as a half-size still,
places the rectangle on it and saves rectangle, hours and still with the camera.
Coordinates are in still pixels. Flags override values read from --zone-file.`,
	Example: `  guardly-cli cameras configure --id 4 --rect 10,20,120,80 --hours 8-18
  guardly-cli cameras configure --id 4 --zone-file gate.yaml --still-out gate.png`,
	Run: func(cmd *cobra.Command, args []string) {
		api, s, log := setup()

		rect, hours, err := zoneInput(cmd)
		must(err, "reading zone")

		url, err := api.LiveURL(cameraID)
		must(err, "building live URL")

		ctx, cancel := context.WithTimeout(cmd.Context(), captureWait+30*time.Second)
		defer cancel()

		opts := feedOptions(s, log)
		opts.Camera = strconv.FormatInt(cameraID, 10)
		feed := livefeed.Dial(ctx, url, opts)
		defer feed.Close()

		cfg := zone.New(cameraID, api, feed)
		must(cfg.Load(ctx), "loading camera")

		fmt.Printf("Waiting for a frame from camera %d...\n", cameraID)
		must(waitForFrame(ctx, feed, captureWait), "capturing still")
		must(cfg.Capture(), "capturing still")

		v := cfg.View()
		fmt.Printf("Captured %dx%d still.\n", v.Width, v.Height)
		if stillOut != "" {
			must(os.WriteFile(stillOut, cfg.Still(), 0o644), "writing still")
		}

		must(cfg.SetRect(rect), "placing rectangle")
		if hours != nil {
			must(cfg.SetTimeRange(*hours), "setting hours")
		}

		cam, err := cfg.Save(ctx)
		must(err, "saving detection zone")

		if printStructured(cam.DetectionZone) {
			return
		}
		fmt.Printf("Detection zone saved for camera %d: %d,%d %dx%d, %s\n",
			cam.ID, rect.X, rect.Y, rect.Width, rect.Height, cfg.View().Hours)
	},
}

// zoneInput merges --zone-file with --rect and --hours; flags win.
// A nil range means keep the hours already stored on the camera.
func zoneInput(cmd *cobra.Command) (models.Rect, *models.TimeRange, error) {
	var doc zoneDoc
	if zoneFile != "" {
		b, err := os.ReadFile(zoneFile)
		if err != nil {
			return models.Rect{}, nil, err
		}
		if err := yaml.Unmarshal(b, &doc); err != nil {
			return models.Rect{}, nil, fmt.Errorf("parse %s: %w", zoneFile, err)
		}
	}

	rect := doc.Rect
	if cmd.Flags().Changed("rect") || rect.Empty() {
		r, err := models.ParseRect(zoneRect)
		if err != nil {
			return models.Rect{}, nil, err
		}
		rect = r
	}

	text := doc.Hours
	if cmd.Flags().Changed("hours") {
		text = zoneHours
	}
	if text == "" {
		return rect, nil, nil
	}
	hours, err := models.ParseTimeRange(text)
	if err != nil {
		return models.Rect{}, nil, err
	}
	return rect, &hours, nil
}

// waitForFrame drains feed events until a frame arrives.
func waitForFrame(ctx context.Context, feed *livefeed.Feed, limit time.Duration) error {
	timer := time.NewTimer(limit)
	defer timer.Stop()
	for {
		select {
		case ev, ok := <-feed.Events():
			if !ok {
				if err := feed.Err(); err != nil {
					return err
				}
				return errors.New("live feed closed before a frame arrived")
			}
			if ev.Kind == livefeed.EventFrame {
				return nil
			}
			if ev.Kind == livefeed.EventState && ev.Err != nil {
				fmt.Printf("  %s: %v\n", ev.State, ev.Err)
			}
		case <-timer.C:
			return fmt.Errorf("no frame within %s", limit)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func init() {
	camerasCmd.AddCommand(camerasConfigureCmd)
	f := camerasConfigureCmd.Flags()
	f.Int64Var(&cameraID, "id", 0, "Camera ID")
	f.StringVar(&zoneRect, "rect", "", "Rectangle as x,y,width,height in still pixels")
	f.StringVar(&zoneHours, "hours", "", "Active hours as START-END, e.g. 8-18 (default: keep the stored hours)")
	f.StringVar(&zoneFile, "zone-file", "", "YAML file with rect and hours")
	f.StringVar(&stillOut, "still-out", "", "Also write the captured still (PNG) to this file")
	f.DurationVar(&captureWait, "wait", 15*time.Second, "How long to wait for the first frame")
	_ = camerasConfigureCmd.MarkFlagRequired("id")
}
