package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/krecords/internal/model"
)

var objectCmd = &cobra.Command{
	Use:   "object",
	Short: "Manage object types",
}

var objectCreateCmd = &cobra.Command{
	Use:   "create <api_name> <name>",
	Short: "Create an object type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		displayField, _ := cmd.Flags().GetString("display-field")
		published, _ := cmd.Flags().GetBool("published")
		owner, _ := cmd.Flags().GetString("owner")

		var ot model.ObjectType
		err := api.doJSON(cmd.Context(), "POST", "/v1/object-types", map[string]any{
			"api_name":               args[0],
			"name":                   args[1],
			"default_field_api_name": displayField,
			"is_published":           published,
			"owner_id":               owner,
		}, &ot)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(&ot)
		} else {
			fmt.Printf("created object type %s (%s)\n", ot.ID, ot.APIName)
		}
		return nil
	},
}

var objectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List object types",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		includeArchived, _ := cmd.Flags().GetBool("all")

		path := "/v1/object-types"
		if includeArchived {
			path += "?include_archived=true"
		}
		var resp struct {
			ObjectTypes []*model.ObjectType `json:"object_types"`
		}
		if err := api.doJSON(cmd.Context(), "GET", path, nil, &resp); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(resp.ObjectTypes)
		} else {
			printObjectTypeTable(resp.ObjectTypes)
		}
		return nil
	},
}

var objectShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an object type and its fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var ot model.ObjectType
		if err := api.doJSON(cmd.Context(), "GET", "/v1/object-types/"+args[0], nil, &ot); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(&ot)
		} else {
			printObjectType(&ot)
		}
		return nil
	},
}

var objectArchiveCmd = &cobra.Command{
	Use:   "archive <id>",
	Short: "Archive an object type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.doJSON(cmd.Context(), "POST", "/v1/object-types/"+args[0]+"/archive", nil, nil); err != nil {
			return err
		}
		fmt.Printf("archived object type %s\n", args[0])
		return nil
	},
}

func init() {
	objectCreateCmd.Flags().String("display-field", "", "api_name of the display field")
	objectCreateCmd.Flags().Bool("published", false, "create as published")
	objectCreateCmd.Flags().String("owner", "", "owner id")
	objectListCmd.Flags().Bool("all", false, "include archived object types")

	objectCmd.AddCommand(objectCreateCmd)
	objectCmd.AddCommand(objectListCmd)
	objectCmd.AddCommand(objectShowCmd)
	objectCmd.AddCommand(objectArchiveCmd)
}
