package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"guardly-cli/internal/directory"
	"guardly-cli/internal/forms"
	"guardly-cli/pkg/models"
)

var userID int64

// userFlags maps command flags to the form field they fill.
var userFlags = map[string]string{
	"email":    "email",
	"name":     "nom",
	"password": "mot_de_passe",
	"role":     "role",
	"company":  "nom_entreprise",
	"address":  "adresse",
	"lat":      "latitude",
	"lng":      "longitude",
	"plan":     "plan_abonnement_id",
	"active":   "statut_abonnement",
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
	Long: `List, inspect, create and edit users. Accounts with the client role also carry
a company profile (--company, --address, --lat, --lng, --plan, --active).`,
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users, filtered by name or email",
	Run: func(cmd *cobra.Command, args []string) {
		api, s, _ := setup()

		users, err := api.GetUsers(cmd.Context())
		must(err, "fetching users")

		dir := directory.New(directory.UserMatcher, s.PageSize)
		dir.Load(users)
		applyListFlags(cmd, dir)

		if printStructured(dir.Rows()) {
			return
		}

		w := newTable("ID", "NAME", "EMAIL", "ROLE", "CREATED")
		for _, u := range dir.Rows() {
			created := u.CreatedAt
			if created == "" {
				created = "-"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, created)
		}
		w.Flush()
		printPageFooter(dir.Page(), dir.PageCount(), dir.Total())
	},
}

var usersGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show one user and its client profile",
	Run: func(cmd *cobra.Command, args []string) {
		api, _, _ := setup()

		user, err := api.GetUser(cmd.Context(), userID)
		must(err, "fetching user")

		if printStructured(user) {
			return
		}
		printRows(forms.UserDetail(*user))
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a user; client accounts also get a company profile",
	Example: `  guardly-cli users create --email ops@example.com --name Ops --password s3cret! --role admin
  guardly-cli users create --email sn@corp.sn --name Awa --password s3cret! --role client \
    --company "Corp SA" --address Dakar --lat 14.69 --lng -17.44 --plan basic`,
	Run: func(cmd *cobra.Command, args []string) {
		api, _, _ := setup()

		form := forms.NewUserCreateForm()
		bindFlags(cmd.Flags(), userFlags, form.Set)
		report(form.Submit(cmd.Context(), api))
	},
}

var usersEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Change a user; switching to the client role requires the company fields",
	Run: func(cmd *cobra.Command, args []string) {
		api, _, log := setup()

		form, err := forms.LoadUserEditForm(cmd.Context(), api, userID)
		must(err, "loading user")
		if form.PlansErr != nil {
			log.Warn("subscription plans unavailable", "error", form.PlansErr)
		}
		bindFlags(cmd.Flags(), userFlags, form.Set)
		report(form.Submit(cmd.Context(), api))
	},
}

func addUserFieldFlags(cmd *cobra.Command, withPassword bool) {
	f := cmd.Flags()
	f.String("email", "", "Email address")
	f.String("name", "", "Display name")
	if withPassword {
		f.String("password", "", fmt.Sprintf("Password, at least %d characters", forms.MinPasswordLength))
	}
	f.String("role", string(models.RoleAdmin), "admin or client")
	f.String("company", "", "Client company name")
	f.String("address", "", "Client address")
	f.String("lat", "", "Client latitude")
	f.String("lng", "", "Client longitude")
	f.String("plan", "", "Subscription plan ID (see 'plans list')")
	f.Bool("active", true, "Subscription active")
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersGetCmd, usersCreateCmd, usersEditCmd)

	addListFlags(usersListCmd)

	for _, c := range []*cobra.Command{usersGetCmd, usersEditCmd} {
		c.Flags().Int64Var(&userID, "id", 0, "User ID")
		_ = c.MarkFlagRequired("id")
	}

	addUserFieldFlags(usersCreateCmd, true)
	addUserFieldFlags(usersEditCmd, false)
	for _, name := range []string{"email", "name", "password", "role"} {
		_ = usersCreateCmd.MarkFlagRequired(name)
	}
}
