package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/groblegark/krecords/internal/attrs"
	"github.com/groblegark/krecords/internal/model"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Manage records",
}

// parseAttrArgs parses key=value pairs.
func parseAttrArgs(args []string) (map[string]string, error) {
	values := make(map[string]string, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid attribute %q, expected key=value", a)
		}
		values[k] = v
	}
	return values, nil
}

// parseConditions parses repeatable --where flags of the form
// "field operator [value]", e.g. "amount greaterThan 1000" or "email isNull".
func parseConditions(wheres []string) ([]model.FilterCondition, error) {
	var conds []model.FilterCondition
	for _, w := range wheres {
		parts := strings.SplitN(w, " ", 3)
		if len(parts) < 2 {
			return nil, fmt.Errorf("invalid condition %q, expected \"field operator [value]\"", w)
		}
		c := model.FilterCondition{
			FieldAPIName: parts[0],
			Operator:     model.Operator(parts[1]),
		}
		if len(parts) == 3 {
			c.Value = parts[2]
		}
		conds = append(conds, c)
	}
	return conds, nil
}

func reportWriteResult(result attrs.WriteResult) {
	if len(result.Written) > 0 {
		fmt.Printf("wrote %s\n", strings.Join(result.Written, ", "))
	}
	for _, fe := range result.Failed {
		fmt.Printf("failed %s: %s\n", fe.FieldAPIName, fe.Message)
	}
}

var recordCreateCmd = &cobra.Command{
	Use:   "create <object_type_id> [key=value ...]",
	Short: "Create a record, optionally with initial attributes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		owner, _ := cmd.Flags().GetString("owner")

		values, err := parseAttrArgs(args[1:])
		if err != nil {
			return err
		}

		var resp struct {
			Record      *model.Record     `json:"record"`
			WriteResult attrs.WriteResult `json:"write_result"`
		}
		err = api.doJSON(cmd.Context(), "POST", "/v1/records", map[string]any{
			"object_type_id": args[0],
			"owner_id":       owner,
			"attributes":     values,
		}, &resp)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}
		fmt.Printf("created record %s\n", resp.Record.ID)
		reportWriteResult(resp.WriteResult)
		return nil
	},
}

var recordShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a record and its attributes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var rec model.Record
		if err := api.doJSON(cmd.Context(), "GET", "/v1/records/"+args[0], nil, &rec); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(&rec)
		} else {
			printRecord(&rec)
		}
		return nil
	},
}

var recordListCmd = &cobra.Command{
	Use:   "list <object_type_id>",
	Short: "List records of an object type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wheres, _ := cmd.Flags().GetStringArray("where")
		owner, _ := cmd.Flags().GetString("owner")
		sortBy, _ := cmd.Flags().GetString("sort")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		conds, err := parseConditions(wheres)
		if err != nil {
			return err
		}

		var resp struct {
			Records []*model.Record `json:"records"`
			Total   int             `json:"total"`
		}
		err = api.doJSON(cmd.Context(), "POST", "/v1/records/search", map[string]any{
			"object_type_id": args[0],
			"owner_id":       owner,
			"conditions":     conds,
			"sort":           sortBy,
			"limit":          limit,
			"offset":         offset,
		}, &resp)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(resp)
		} else {
			printRecordTable(resp.Records, resp.Total)
		}
		return nil
	},
}

var recordSetCmd = &cobra.Command{
	Use:   "set <id> <key=value ...>",
	Short: "Set attribute values on a record",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := parseAttrArgs(args[1:])
		if err != nil {
			return err
		}

		var result attrs.WriteResult
		err = api.doJSON(cmd.Context(), "PATCH", "/v1/records/"+args[0]+"/attributes",
			map[string]any{"attributes": values}, &result)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(result)
			return nil
		}
		reportWriteResult(result)
		return nil
	},
}

var recordDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.doJSON(cmd.Context(), "DELETE", "/v1/records/"+args[0], nil, nil); err != nil {
			return err
		}
		fmt.Printf("deleted record %s\n", args[0])
		return nil
	},
}

var recordRelatedCmd = &cobra.Command{
	Use:   "related <id>",
	Short: "Show records related to a record, grouped by relationship",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		path := "/v1/records/" + args[0] + "/related"
		if user != "" {
			path += "?user_id=" + user
		}
		var resp struct {
			Sections []*model.RelatedSection `json:"sections"`
		}
		if err := api.doJSON(cmd.Context(), "GET", path, nil, &resp); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(resp.Sections)
		} else {
			printRelatedSections(resp.Sections)
		}
		return nil
	},
}

func init() {
	recordCreateCmd.Flags().String("owner", "", "owner id")
	recordListCmd.Flags().StringArray("where", nil, `filter condition "field operator [value]" (repeatable)`)
	recordListCmd.Flags().String("owner", "", "filter by owner id")
	recordListCmd.Flags().String("sort", "", "sort column (created_at, updated_at, id; prefix \"-\" for descending)")
	recordListCmd.Flags().Int("limit", 50, "max records to return")
	recordListCmd.Flags().Int("offset", 0, "records to skip")
	recordRelatedCmd.Flags().String("user", "", "user id for visibility preferences")

	recordCmd.AddCommand(recordCreateCmd)
	recordCmd.AddCommand(recordShowCmd)
	recordCmd.AddCommand(recordListCmd)
	recordCmd.AddCommand(recordSetCmd)
	recordCmd.AddCommand(recordDeleteCmd)
	recordCmd.AddCommand(recordRelatedCmd)
}
