package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papershelf/internal/paper"
)

// settableFields are the fields 'shelf set' may change.
var settableFields = []string{
	paper.FieldStatus, paper.FieldPriority, "notes", "rating", "relevance",
	paper.FieldLanguage, paper.FieldItemType, paper.FieldYear,
}

func init() {
	rootCmd.AddCommand(setCmd)
}

var setCmd = &cobra.Command{
	Use:   "set <id> <field> <value>",
	Short: "Change a tracking field of a paper",
	Long: fmt.Sprintf(`Change one field of a saved paper. The result must still validate.

Settable fields: %v

Examples:
  shelf set 12 status reading
  shelf set 12 priority high`, settableFields),
	Args: cobra.ExactArgs(3),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	id, field, value := args[0], args[1], args[2]
	if !paper.Contains(settableFields, field) {
		exitWithError(ExitError, "field %q cannot be set (settable: %v)", field, settableFields)
	}

	store := mustOpenStore()
	defer store.Close()

	rec, err := openLibrary(store).Update(context.Background(), id, func(r paper.Record) error {
		r[field] = value
		return nil
	})
	if err != nil {
		exitWithErr(err, "updating paper")
	}

	if humanOutput {
		outputHuman("%s: %s = %s\n", rec.IDString(), field, value)
		return nil
	}
	return outputJSON(rec)
}
