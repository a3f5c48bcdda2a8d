package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage per-user field visibility preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show <user_id> <object_type_id>",
	Short: "Show a user's visible fields for an object type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			VisibleFields []string `json:"visible_fields"`
		}
		path := "/v1/preferences/" + args[0] + "/" + args[1]
		if err := api.doJSON(cmd.Context(), "GET", path, nil, &resp); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(resp.VisibleFields)
			return nil
		}
		if len(resp.VisibleFields) == 0 {
			fmt.Println("no preference recorded (default applies)")
			return nil
		}
		fmt.Println(strings.Join(resp.VisibleFields, ", "))
		return nil
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <user_id> <object_type_id> <field_api_name ...>",
	Short: "Set a user's visible fields for an object type",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/v1/preferences/" + args[0] + "/" + args[1]
		err := api.doJSON(cmd.Context(), "PUT", path, map[string]any{
			"visible_fields": args[2:],
		}, nil)
		if err != nil {
			return err
		}
		fmt.Printf("visible fields set for %s on %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsSetCmd)
}
