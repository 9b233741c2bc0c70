package commands

import (
	"fmt"

	"github.com/getkayan/kayan-login/core/audit"
	"github.com/getkayan/kayan-login/core/config"
	"github.com/getkayan/kayan-login/core/domain"
	"github.com/getkayan/kayan-login/core/identity"
	"github.com/getkayan/kayan-login/core/logger"
	"github.com/getkayan/kayan-login/core/metrics"
	"github.com/getkayan/kayan-login/core/module"
	"github.com/getkayan/kayan-login/core/options"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var loginUser string

var loginCmd = &cobra.Command{
	Use:   "login [module]",
	Short: "Run a login, commit and logout cycle against a module",
	Long: `Authenticate against a configured login module and print the principals
it would add to a subject. The first module in the config file is used when
none is named.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginUser, "user", "", "user name (prompted for when empty)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	mc, err := pickModule(cfg, args)
	if err != nil {
		return err
	}

	recorder := audit.NewRecorder(audit.NewZapSink(logger.L()), nil)
	m, err := module.DefaultRegistry().Build(mc,
		module.WithAudit(recorder),
		module.WithMetrics(metrics.NewMetrics(prometheus.NewRegistry())),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.L().Warn("closing module", zap.String("module", m.Name()), zap.Error(err))
		}
	}()

	h := NewTerminalHandler(cmd.InOrStdin(), cmd.ErrOrStderr())
	h.Username = loginUser

	subject := identity.NewSubject()
	if err := m.Initialize(subject, h, options.Options(mc.Options)); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := m.Login(ctx); err != nil {
		if _, abortErr := m.Abort(ctx); abortErr != nil {
			logger.L().Warn("abort failed", zap.Error(abortErr))
		}
		logger.L().Debug("login failed", zap.String("reason", domain.FailureReason(err)))
		return err
	}
	if _, err := m.Commit(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "authenticated by %s\n", m.Name())
	for _, p := range subject.Principals() {
		fmt.Fprintln(out, p)
	}

	_, err = m.Logout(ctx)
	return err
}

func pickModule(cfg *config.Config, args []string) (domain.ModuleConfig, error) {
	if len(args) == 1 {
		mc, ok := cfg.Module(args[0])
		if !ok {
			return domain.ModuleConfig{}, fmt.Errorf("%w: no module named %q", domain.ErrConfig, args[0])
		}
		return mc, nil
	}
	if len(cfg.Modules) == 0 {
		return domain.ModuleConfig{}, fmt.Errorf("%w: no modules configured (use --config)", domain.ErrConfig)
	}
	return cfg.Modules[0], nil
}
