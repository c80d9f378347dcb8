package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/vegcrib/internal/db"
	"github.com/vegcrib/internal/domain"
	"github.com/vegcrib/internal/service"
)

// finish prints a result and returns err. A result that was applied but
// not persisted is still printed before the error is reported.
func finish(c *cli.Command, v any, err error, printText func()) error {
	if err != nil && !appliedButNotPersisted(err) {
		return err
	}
	if c.Bool("json") {
		if v == nil {
			return err
		}
		if printErr := printJSON(v); printErr != nil {
			return printErr
		}
		return err
	}
	printText()
	return err
}

func appliedButNotPersisted(err error) bool {
	if !errors.Is(err, domain.ErrPersistence) {
		return false
	}
	return !errors.Is(err, domain.ErrCapacity) && !errors.Is(err, domain.ErrConflict) &&
		!errors.Is(err, domain.ErrValidation) && !errors.Is(err, domain.ErrNotFound)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printTable(headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func printEnvironments(views []service.EnvironmentView) {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			v.Name,
			fmt.Sprintf("%dx%d", v.Rows, v.Columns),
			fmt.Sprintf("%d/%d", v.Occupied, v.MaxSize),
		})
	}
	printTable([]string{"NAME", "GRID", "OCCUPIED"}, rows)
}

func printPlants(views []service.PlantView) {
	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{
			strconv.FormatInt(v.ID, 10),
			v.Name,
			v.HarvestType,
			v.GrowType,
			v.BirthDate,
			strconv.Itoa(v.AgeInWeeks),
			v.HarvestDate,
			v.Environment,
			v.Slot,
			v.Container,
		})
	}
	printTable([]string{"ID", "NAME", "HARVEST TYPE", "GROW TYPE", "BORN", "WEEK", "HARVEST", "ENVIRONMENT", "SLOT", "CONTAINER"}, rows)
}

func printSchedule(view service.ScheduleView) {
	fmt.Printf("%s (plant %d), week %d: %s\n", view.PlantName, view.PlantID, view.Week, view.Status)
	if !view.Applicable {
		return
	}

	names := make([]string, 0, len(view.Doses))
	for name := range view.Doses {
		names = append(names, name)
	}
	slices.Sort(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, formatFloat(view.Doses[name])})
	}
	printTable([]string{"CHEMICAL", "ML/L"}, rows)
}

func printOverrides(overrides []domain.Override) {
	rows := make([][]string, 0, len(overrides))
	for _, o := range overrides {
		rows = append(rows, []string{strconv.FormatInt(o.Seq, 10), strconv.Itoa(o.Week), o.Chemical, formatFloat(o.Value)})
	}
	printTable([]string{"SEQ", "WEEK", "CHEMICAL", "VALUE"}, rows)
}

func printLedger(entries []db.LedgerEntry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		plant := "-"
		if e.PlantKey != "" {
			plant = fmt.Sprintf("%d %s", e.PlantID, e.PlantKey)
		}
		env := "-"
		if e.EnvironmentName != "" {
			env = e.EnvironmentName
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(e.ID), 10),
			time.Unix(e.EventEpoch, 0).UTC().Format("2006-01-02 15:04:05"),
			e.Action,
			plant,
			env,
			e.OperationID,
		})
	}
	printTable([]string{"ID", "TIME", "ACTION", "PLANT", "ENVIRONMENT", "OPERATION"}, rows)
}

func printVerification(result service.LedgerVerification) {
	if result.Valid {
		fmt.Printf("ledger ok: %d rows\n", result.Rows)
		return
	}
	fmt.Printf("ledger broken at row %d after %d rows: %s\n", result.BrokenAt, result.Rows, result.Reason)
}
