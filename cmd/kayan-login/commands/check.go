package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/module"
	"github.com/getkayan/kayan-login/core/options"
	"github.com/getkayan/kayan-login/core/validator"
	"github.com/getkayan/kayan-login/persistence"
	"github.com/spf13/cobra"
)

var checkStoreCmd = &cobra.Command{
	Use:   "check-store [module...]",
	Short: "Check that module credential stores are readable",
	Long: `Parse password files and connect to user databases for the configured
modules (all of them when none are named). Exits non-zero if any store fails.`,
	RunE: runCheckStore,
}

func runCheckStore(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	modules := cfg.Modules
	if len(args) > 0 {
		modules = modules[:0:0]
		for _, name := range args {
			mc, ok := cfg.Module(name)
			if !ok {
				return fmt.Errorf("%w: no module named %q", domain.ErrConfig, name)
			}
			modules = append(modules, mc)
		}
	}

	var errs []error
	out := cmd.OutOrStdout()
	for _, mc := range modules {
		if err := checkStore(cmd.Context(), out, mc); err != nil {
			fmt.Fprintf(out, "%s: FAIL: %v\n", mc.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", mc.Name, err))
		}
	}
	return errors.Join(errs...)
}

func checkStore(ctx context.Context, out io.Writer, mc domain.ModuleConfig) error {
	opts := options.Options(mc.Options)
	switch mc.Type {
	case module.TypeFile:
		path, err := opts.Require("pwdFile", "a password file must be named")
		if err != nil {
			return err
		}
		records, err := validator.LoadRecords(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s: ok, %d users in %s\n", mc.Name, len(records), path)
	case module.TypeDB:
		v, err := module.DBValidatorFactory(opts, nil)
		if err != nil {
			return err
		}
		dbc := v.(*validator.DBValidator).Config()
		db, err := persistence.Open(dbc.Driver, dbc.URL, dbc.User, dbc.Password)
		if err != nil {
			return err
		}
		defer persistence.Close(db)

		var n int64
		if err := db.WithContext(ctx).Table(dbc.Table).Count(&n).Error; err != nil {
			return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
		}
		fmt.Fprintf(out, "%s: ok, %d rows in %s\n", mc.Name, n, dbc.Table)
	default:
		fmt.Fprintf(out, "%s: skipped, type %q has no offline check\n", mc.Name, mc.Type)
	}
	return nil
}
