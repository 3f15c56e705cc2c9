package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"guardly-cli/internal/directory"
	"guardly-cli/internal/forms"
	"guardly-cli/pkg/models"
)

// Variables to hold flag values
var (
	cameraID   int64
	listFilter string
	listPage   int
	listSize   int
)

// cameraFlags maps command flags to the form field they fill.
var cameraFlags = map[string]string{
	"client-id":    "client_id",
	"ip":           "adresse_ip",
	"location":     "localisation",
	"status":       "statut",
	"model":        "modele",
	"manufacturer": "fabricant",
}

// Parent Command
var camerasCmd = &cobra.Command{
	Use:   "cameras",
	Short: "Manage cameras",
	Long:  `List, inspect, create and edit cameras, watch their live feed or draw their detection zone.`,
}

// List Command
var camerasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cameras, filtered by location or IP",
	Run: func(cmd *cobra.Command, args []string) {
		api, s, _ := setup()

		cameras, err := api.GetCameras(cmd.Context())
		must(err, "fetching cameras")

		dir := directory.New(directory.CameraMatcher, s.PageSize)
		dir.Load(cameras)
		applyListFlags(cmd, dir)

		if printStructured(dir.Rows()) {
			return
		}

		w := newTable("ID", "LOCATION", "IP ADDRESS", "STATUS", "MODEL", "ZONE")
		for _, c := range dir.Rows() {
			zone := "-"
			if c.HasZone() {
				zone = string(c.DetectionZone.Shape)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", c.ID, c.Location, c.IPAddress, c.Status, c.Model, zone)
		}
		w.Flush()
		printPageFooter(dir.Page(), dir.PageCount(), dir.Total())
	},
}

var camerasGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show one camera",
	Run: func(cmd *cobra.Command, args []string) {
		api, _, _ := setup()

		cam, err := api.GetCamera(cmd.Context(), cameraID)
		must(err, "fetching camera")

		if printStructured(cam) {
			return
		}
		printRows(forms.CameraDetail(*cam))
	},
}

var camerasCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a camera",
	Example: `  guardly-cli cameras create --client-id 3 --ip 10.0.0.20 --location "North gate" \
    --model P3245 --manufacturer Axis`,
	Run: func(cmd *cobra.Command, args []string) {
		api, _, _ := setup()

		form := forms.NewCameraForm()
		bindFlags(cmd.Flags(), cameraFlags, form.Set)
		report(form.Submit(cmd.Context(), api))
	},
}

var camerasEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change the fields of a camera, keeping its detection zone",
	Run: func(cmd *cobra.Command, args []string) {
		api, _, _ := setup()

		form, err := forms.LoadCameraForm(cmd.Context(), api, cameraID)
		must(err, "loading camera")
		bindFlags(cmd.Flags(), cameraFlags, form.Set)
		report(form.Submit(cmd.Context(), api))
	},
}

var camerasZoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Show the detection zone of a camera, or set it without a new still",
	Long: `Prints the stored detection zone. With --rect (and optionally --hours) the zone
is replaced directly; use "cameras configure" to capture a still as well.`,
	Run: func(cmd *cobra.Command, args []string) {
		api, _, _ := setup()

		zone, err := api.GetCameraZones(cmd.Context(), cameraID)
		must(err, "fetching detection zone")

		if cmd.Flags().Changed("rect") {
			rect, hours, err := zoneInput(cmd)
			must(err, "reading zone")
			next := models.NewRectZone(rect, zone.Hours)
			if zone.Shape == models.ShapeNone {
				next.Hours = models.FullDay
			}
			if hours != nil {
				next.Hours = *hours
			}
			must(api.UpdateCameraZones(cmd.Context(), cameraID, *next), "saving detection zone")
			zone = next
		}

		if printStructured(zone) {
			return
		}
		switch zone.Shape {
		case models.ShapeNone:
			fmt.Printf("Camera %d has no detection zone.\n", cameraID)
		case models.ShapeRectangle:
			r := zone.Rect
			fmt.Printf("Shape:\trectangle\nRect:\t%d,%d %dx%d\nHours:\t%s\n", r.X, r.Y, r.Width, r.Height, zone.Hours)
		default:
			fmt.Printf("Shape:\t%s (%d paths, read-only)\nHours:\t%s\n", zone.Shape, len(zone.Paths), zone.Hours)
		}
	},
}

// bindFlags copies every flag the user actually passed into a form.
func bindFlags(flags *pflag.FlagSet, fields map[string]string, set func(name, value string) error) {
	flags.Visit(func(f *pflag.Flag) {
		name, ok := fields[f.Name]
		if !ok {
			return
		}
		must(set(name, f.Value.String()), "setting --"+f.Name)
	})
}

type pager interface {
	SetFilter(string)
	SetPageSize(int)
	SetPage(int)
}

// applyListFlags sets size before filter and filter before page, each of which resets the page.
func applyListFlags(cmd *cobra.Command, d pager) {
	if cmd.Flags().Changed("size") {
		d.SetPageSize(listSize)
	}
	d.SetFilter(listFilter)
	d.SetPage(listPage - 1)
}

// printPageFooter takes the zero-based page the directory reports.
func printPageFooter(page, pages, total int) {
	fmt.Printf("\nPage %d of %d, %d result(s)\n", page+1, pages, total)
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&listFilter, "filter", "f", "", "Case-insensitive search term")
	cmd.Flags().IntVar(&listPage, "page", 1, "Page number, starting at 1")
	cmd.Flags().IntVar(&listSize, "size", 5, "Rows per page (5, 10 or 25)")
}

func addCameraFieldFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("client-id", "", "Owning client ID")
	f.String("ip", "", "IP address")
	f.String("location", "", "Location label")
	f.String("status", string(models.CameraActive), "active or inactive")
	f.String("model", "", "Camera model")
	f.String("manufacturer", "", "Manufacturer")
}

func init() {
	rootCmd.AddCommand(camerasCmd)
	camerasCmd.AddCommand(camerasListCmd, camerasGetCmd, camerasCreateCmd, camerasEditCmd, camerasZoneCmd)

	addListFlags(camerasListCmd)

	for _, c := range []*cobra.Command{camerasGetCmd, camerasEditCmd, camerasZoneCmd} {
		c.Flags().Int64Var(&cameraID, "id", 0, "Camera ID")
		_ = c.MarkFlagRequired("id")
	}

	camerasZoneCmd.Flags().StringVar(&zoneRect, "rect", "", "Replace the zone with this x,y,width,height rectangle")
	camerasZoneCmd.Flags().StringVar(&zoneHours, "hours", "", "Active hours as START-END, used with --rect")

	addCameraFieldFlags(camerasCreateCmd)
	addCameraFieldFlags(camerasEditCmd)
	for _, name := range []string{"client-id", "ip", "location", "model", "manufacturer"} {
		_ = camerasCreateCmd.MarkFlagRequired(name)
	}
}
