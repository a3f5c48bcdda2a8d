package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/groblegark/krecords/internal/model"
)

var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Manage field definitions",
}

var fieldAddCmd = &cobra.Command{
	Use:   "add <object_type_id> <api_name> <name> <data_type>",
	Short: "Add a field to an object type",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		required, _ := cmd.Flags().GetBool("required")
		order, _ := cmd.Flags().GetInt("order")
		target, _ := cmd.Flags().GetString("target")
		picklist, _ := cmd.Flags().GetStringSlice("option")

		body := map[string]any{
			"api_name":      args[1],
			"name":          args[2],
			"data_type":     args[3],
			"is_required":   required,
			"display_order": order,
		}
		opts := model.FieldOptions{TargetObjectTypeID: target}
		for _, p := range picklist {
			opts.Picklist = append(opts.Picklist, model.PicklistOption{Value: p, Label: p})
		}
		if target != "" || len(picklist) > 0 {
			raw, err := json.Marshal(opts)
			if err != nil {
				return err
			}
			body["options"] = json.RawMessage(raw)
		}

		var f model.FieldDefinition
		if err := api.doJSON(cmd.Context(), "POST", "/v1/object-types/"+args[0]+"/fields", body, &f); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(&f)
		} else {
			fmt.Printf("created field %s (%s %s)\n", f.ID, f.APIName, f.DataType)
		}
		return nil
	},
}

var fieldListCmd = &cobra.Command{
	Use:   "list <object_type_id>",
	Short: "List fields of an object type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Fields []*model.FieldDefinition `json:"fields"`
		}
		if err := api.doJSON(cmd.Context(), "GET", "/v1/object-types/"+args[0]+"/fields", nil, &resp); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(resp.Fields)
		} else {
			printFieldTable(resp.Fields)
		}
		return nil
	},
}

var fieldRemoveCmd = &cobra.Command{
	Use:   "remove <field_id>",
	Short: "Delete a field definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.doJSON(cmd.Context(), "DELETE", "/v1/fields/"+args[0], nil, nil); err != nil {
			return err
		}
		fmt.Printf("deleted field %s\n", args[0])
		return nil
	},
}

func init() {
	fieldAddCmd.Flags().Bool("required", false, "mark the field required")
	fieldAddCmd.Flags().Int("order", 0, "display order (0 appends)")
	fieldAddCmd.Flags().String("target", "", "target object type id (lookup fields)")
	fieldAddCmd.Flags().StringSlice("option", nil, "picklist option (repeatable)")

	fieldCmd.AddCommand(fieldAddCmd)
	fieldCmd.AddCommand(fieldListCmd)
	fieldCmd.AddCommand(fieldRemoveCmd)
}
