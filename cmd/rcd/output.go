package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/groblegark/krecords/internal/model"
	"github.com/groblegark/krecords/internal/ui"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printObjectTypeTable(types []*model.ObjectType) {
	color := ui.ShouldUseColor()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAPI NAME\tNAME\tFIELDS\tSTATUS")
	for _, ot := range types {
		status := "draft"
		if ot.IsPublished {
			status = ui.Paint(color, ui.Green, "published")
		}
		if ot.IsArchived {
			status = ui.Paint(color, ui.Dim, "archived")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", ot.ID, ot.APIName, ot.Name, len(ot.Fields), status)
	}
	w.Flush()
}

func printObjectType(ot *model.ObjectType) {
	fmt.Printf("ID:            %s\n", ot.ID)
	fmt.Printf("API Name:      %s\n", ot.APIName)
	fmt.Printf("Name:          %s\n", ot.Name)
	if ot.DefaultFieldAPIName != "" {
		fmt.Printf("Display Field: %s\n", ot.DefaultFieldAPIName)
	}
	fmt.Printf("Published:     %t\n", ot.IsPublished)
	fmt.Printf("Archived:      %t\n", ot.IsArchived)
	fmt.Printf("Created At:    %s\n", ot.CreatedAt.Format("2006-01-02 15:04:05"))
	if len(ot.Fields) > 0 {
		fmt.Println()
		printFieldTable(ot.Fields)
	}
}

func printFieldTable(fields []*model.FieldDefinition) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAPI NAME\tNAME\tTYPE\tREQUIRED\tORDER")
	for _, f := range fields {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%d\n", f.ID, f.APIName, f.Name, f.DataType, f.IsRequired, f.DisplayOrder)
	}
	w.Flush()
}

func printRecord(rec *model.Record) {
	color := ui.ShouldUseColor()
	fmt.Printf("ID:          %s\n", ui.Paint(color, ui.Cyan, rec.ID))
	fmt.Printf("Object Type: %s\n", rec.ObjectTypeID)
	if rec.OwnerID != "" {
		fmt.Printf("Owner:       %s\n", rec.OwnerID)
	}
	fmt.Printf("Created At:  %s\n", rec.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated At:  %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
	if len(rec.Attributes) > 0 {
		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		names := make([]string, 0, len(rec.Attributes))
		for name := range rec.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "%s:\t%s\n", name, rec.Attributes[name])
		}
		w.Flush()
	}
}

func printRecordTable(records []*model.Record, total int) {
	color := ui.ShouldUseColor()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tATTRIBUTES\tCREATED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%d\t%s\n",
			ui.Paint(color, ui.Cyan, r.ID),
			len(r.Attributes),
			r.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	w.Flush()
	fmt.Printf("\n%d records (%d total)\n", len(records), total)
}

func printRelatedSections(sections []*model.RelatedSection) {
	color := ui.ShouldUseColor()
	for i, sec := range sections {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("%s (%s, %s)\n",
			ui.Paint(color, ui.Bold, sec.Relationship.Name),
			sec.ObjectType.Name,
			sec.Direction,
		)

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		headers := "  ID"
		for _, f := range sec.Fields {
			headers += "\t" + f.Name
		}
		fmt.Fprintln(w, headers)
		for _, r := range sec.Records {
			row := "  " + r.ID
			for _, f := range sec.Fields {
				row += "\t" + r.Attributes[f.APIName]
			}
			fmt.Fprintln(w, row)
		}
		w.Flush()
		fmt.Printf("  %d records\n", len(sec.Records))
	}
	if len(sections) == 0 {
		fmt.Println("no related records")
	}
}

func printRelationshipTable(rels []*model.Relationship) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tFROM\tTO\tTYPE")
	for _, rel := range rels {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rel.ID, rel.Name, rel.FromObjectID, rel.ToObjectID, rel.RelationshipType)
	}
	w.Flush()
}
