package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/krecords/internal/model"
)

var relCmd = &cobra.Command{
	Use:   "rel",
	Short: "Manage relationships between object types",
}

var relAddCmd = &cobra.Command{
	Use:   "add <name> <from_object_id> <to_object_id>",
	Short: "Add a relationship",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		relType, _ := cmd.Flags().GetString("type")
		createdBy, _ := cmd.Flags().GetString("by")

		var rel model.Relationship
		err := api.doJSON(cmd.Context(), "POST", "/v1/relationships", map[string]any{
			"name":              args[0],
			"from_object_id":    args[1],
			"to_object_id":      args[2],
			"relationship_type": relType,
			"created_by":        createdBy,
		}, &rel)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(&rel)
		} else {
			fmt.Printf("created relationship %s (%s)\n", rel.ID, rel.Name)
		}
		return nil
	},
}

var relListCmd = &cobra.Command{
	Use:   "list <object_type_id>",
	Short: "List relationships touching an object type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Relationships []*model.Relationship `json:"relationships"`
		}
		if err := api.doJSON(cmd.Context(), "GET", "/v1/object-types/"+args[0]+"/relationships", nil, &resp); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(resp.Relationships)
		} else {
			printRelationshipTable(resp.Relationships)
		}
		return nil
	},
}

var relRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a relationship",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.doJSON(cmd.Context(), "DELETE", "/v1/relationships/"+args[0], nil, nil); err != nil {
			return err
		}
		fmt.Printf("removed relationship %s\n", args[0])
		return nil
	},
}

func init() {
	relAddCmd.Flags().String("type", "one_to_many", "relationship type (one_to_many, many_to_many)")
	relAddCmd.Flags().String("by", "", "creator id")

	relCmd.AddCommand(relAddCmd)
	relCmd.AddCommand(relListCmd)
	relCmd.AddCommand(relRemoveCmd)
}
