package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "Client company profiles",
}

var clientsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List client profiles",
	Run: func(cmd *cobra.Command, args []string) {
		api, _, _ := setup()

		clients, err := api.GetClients(cmd.Context())
		must(err, "fetching clients")

		if printStructured(clients) {
			return
		}

		w := newTable("ID", "USER", "COMPANY", "ADDRESS", "PLAN", "SUBSCRIPTION")
		for _, c := range clients {
			sub := "Inactive"
			if c.Active() {
				sub = "Active"
			}
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n", c.ID, c.UserID, c.CompanyName, c.Address, c.PlanID, sub)
		}
		w.Flush()
	},
}

var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Subscription plans",
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the subscription plans offered to clients",
	Run: func(cmd *cobra.Command, args []string) {
		api, _, _ := setup()

		plans, err := api.GetSubscriptionPlans(cmd.Context())
		must(err, "fetching subscription plans")

		if printStructured(plans) {
			return
		}

		w := newTable("ID", "NAME", "MONTHLY PRICE")
		for _, p := range plans {
			fmt.Fprintf(w, "%s\t%s\t%.0f\n", p.ID, p.Name, p.MonthlyPrice)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(clientsCmd, plansCmd)
	clientsCmd.AddCommand(clientsListCmd)
	plansCmd.AddCommand(plansListCmd)
}
