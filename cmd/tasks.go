package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/alamesa/catalog-cli/internal/model"
	"github.com/alamesa/catalog-cli/internal/store"
)

var (
	tasksStatus string
	tasksKind   string
	tasksLimit  int
	tasksOffset int
)

var tasksCmd = &cobra.Command{
	Use:   "tasks [id]",
	Short: "List tasks or show one task with its log",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		if len(args) == 1 {
			return showTask(cmd, st, args[0])
		}
		return listTasks(cmd, st)
	},
}

func listTasks(cmd *cobra.Command, st store.Store) error {
	tasks, err := st.ListTasks(cmd.Context(), store.TaskFilter{
		Status: model.TaskStatus(tasksStatus),
		Kind:   model.TaskKind(tasksKind),
		Limit:  tasksLimit,
		Offset: tasksOffset,
	})
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("no tasks")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tACCOUNT\tSTATUS\tPROGRESS\tRESULT\tCREATED")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			t.ID, t.Kind, t.Account, t.Status,
			t.ProgressCurrent, t.ProgressTotal,
			t.ResultFile,
			t.CreatedAt.Format("2006-01-02 15:04:05"),
		)
	}
	return w.Flush()
}

func showTask(cmd *cobra.Command, st store.Store, id string) error {
	t, err := st.GetTask(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Printf("Task:     %s\n", t.ID)
	fmt.Printf("Kind:     %s\n", t.Kind)
	fmt.Printf("Account:  %s\n", t.Account)
	fmt.Printf("Status:   %s\n", t.Status)
	fmt.Printf("Progress: %d/%d\n", t.ProgressCurrent, t.ProgressTotal)
	if t.ResultFile != "" {
		fmt.Printf("Result:   %s\n", t.ResultFile)
	}
	fmt.Printf("Created:  %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	if len(t.Log) > 0 {
		fmt.Println("Log:")
		for _, line := range t.Log {
			fmt.Printf("  [%s] %s\n", line.At.Format("15:04:05"), line.Message)
		}
	}
	return nil
}

func init() {
	tasksCmd.Flags().StringVar(&tasksStatus, "status", "", "filter by status (pendiente|procesando|completado|error)")
	tasksCmd.Flags().StringVar(&tasksKind, "kind", "", "filter by kind (export|visibility)")
	tasksCmd.Flags().IntVar(&tasksLimit, "limit", 20, "max tasks to list")
	tasksCmd.Flags().IntVar(&tasksOffset, "offset", 0, "listing offset")
	rootCmd.AddCommand(tasksCmd)
}
