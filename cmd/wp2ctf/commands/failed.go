package commands

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/openjobspec/wp2ctf/internal/config"
	"github.com/openjobspec/wp2ctf/internal/migrate"
	"github.com/openjobspec/wp2ctf/internal/output"
	"github.com/openjobspec/wp2ctf/internal/store"
)

// Failed runs `wp2ctf failed [full|sample]`: it lists the question ids
// recorded as failed by the last upload of each type.
func Failed(cfg *config.Config, args []string) error {
	flags := flag.NewFlagSet("failed", flag.ContinueOnError)
	positional, err := parseInterspersed(flags, args)
	if err != nil {
		return err
	}
	scope := migrate.ScopeSample
	if len(positional) > 0 {
		if scope, err = migrate.ParseScope(positional[0]); err != nil {
			return err
		}
	}

	st := store.New(cfg.DataDir)
	failed := map[string][]int{}
	var rows [][]string
	for _, t := range cfg.QuestionTypes {
		ids, err := st.ReadFailedIDs(string(scope), t)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		failed[t] = ids
		strs := make([]string, len(ids))
		for i, id := range ids {
			strs[i] = strconv.Itoa(id)
		}
		rows = append(rows, []string{t, strconv.Itoa(len(ids)), strings.Join(strs, ",")})
	}

	if output.Format != "json" && len(rows) == 0 {
		output.Success("No failed questions recorded for %s", scope)
		return nil
	}
	if err := output.PrintResult(failed, []string{"TYPE", "COUNT", "IDS"}, func() [][]string { return rows }); err != nil {
		return err
	}
	if output.Format != "json" {
		fmt.Fprintf(output.Stdout, "\nMedia errors: %s\n", st.MediaErrorsPath(string(scope)))
	}
	return nil
}
