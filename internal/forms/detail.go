package forms

import (
	"strconv"

	"guardly-cli/pkg/models"
)

// Row is one read-only label/value line of a detail screen.
type Row struct {
	Label string
	Value string
}

func CameraDetail(c models.Camera) []Row {
	zone := "none"
	if c.HasZone() {
		zone = string(c.DetectionZone.Shape) + " " + c.DetectionZone.Hours.String()
		if r := c.DetectionZone.Rect; r != nil {
			zone += " at " + strconv.Itoa(r.X) + "," + strconv.Itoa(r.Y) + " " +
				strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height)
		}
	}
	status := string(c.Status)
	if !c.Status.Known() && status != "" {
		status += " (unrecognised)"
	}
	return []Row{
		{"ID", strconv.FormatInt(c.ID, 10)},
		{"IP address", c.IPAddress},
		{"Location", c.Location},
		{"Status", status},
		{"Connectivity", c.OnlineLabel()},
		{"Model", c.Model},
		{"Manufacturer", c.Manufacturer},
		{"Detection zone", zone},
	}
}

func UserDetail(u models.User) []Row {
	rows := []Row{
		{"ID", strconv.FormatInt(u.ID, 10)},
		{"Email", u.Email},
		{"Name", u.Name},
		{"Role", string(u.Role)},
		{"Created", u.CreatedAt},
		{"Updated", u.UpdatedAt},
	}
	if u.Role == models.RoleClient && u.Client != nil {
		status := "Inactive"
		if u.Client.Active() {
			status = "Active"
		}
		rows = append(rows,
			Row{"Company name", u.Client.CompanyName},
			Row{"Address", u.Client.Address},
			Row{"Latitude", strconv.FormatFloat(u.Client.Latitude, 'f', -1, 64)},
			Row{"Longitude", strconv.FormatFloat(u.Client.Longitude, 'f', -1, 64)},
			Row{"Subscription plan", u.Client.PlanID},
			Row{"Subscription", status},
		)
	}
	return rows
}
