package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/groblegark/krecords/internal/model"
)

var operatorsCmd = &cobra.Command{
	Use:   "operators <data_type>",
	Short: "Show the filter operators legal for a data type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			DataType     model.DataType   `json:"data_type"`
			Operators    []model.Operator `json:"operators"`
			DefaultValue string           `json:"default_value"`
		}
		if err := api.doJSON(cmd.Context(), "GET", "/v1/operators?data_type="+args[0], nil, &resp); err != nil {
			return err
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}
		ops := make([]string, len(resp.Operators))
		for i, op := range resp.Operators {
			ops[i] = op.String()
		}
		fmt.Printf("%s: %s\n", resp.DataType, strings.Join(ops, ", "))
		return nil
	},
}
