package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/s6s-labs/s6s-engine/pkg/config"
	"github.com/s6s-labs/s6s-engine/pkg/flow/dispatch"
	"github.com/s6s-labs/s6s-engine/pkg/flow/runner"
	"github.com/s6s-labs/s6s-engine/pkg/flow/runner/flowlocalrunner"
	"github.com/s6s-labs/s6s-engine/pkg/flowfile"
	"github.com/s6s-labs/s6s-engine/pkg/logconsole"
	"github.com/s6s-labs/s6s-engine/pkg/model/mexec"
)

func newRunCmd() *cobra.Command {
	var fileRoot string

	cmd := &cobra.Command{
		Use:   "run <workflow.yaml>",
		Short: "Execute a workflow definition and print the execution record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			flow, creds, err := flowfile.Load(args[0])
			if err != nil {
				return err
			}

			opts := flowlocalrunner.Options{
				Store:  runner.NewStaticCredentialStore(creds),
				Logger: slog.Default(),
				Table: dispatch.Default(dispatch.Options{
					ScriptTimeout: cfg.ScriptTimeout(),
					FileRoot:      fileRoot,
				}),
			}
			if len(creds) > 0 {
				v, err := cfg.Vault()
				if err != nil {
					return err
				}
				opts.Vault = v
			}

			logChans := logconsole.NewLogChanMap()
			opts.LogChanMap = &logChans

			r := flowlocalrunner.New(opts)

			exec, err := r.Run(cmd.Context(), flow)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(exec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if exec.Status != mexec.EXEC_STATUS_SUCCESS {
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fileRoot, "file-root", "", "confine file system nodes to this directory")
	return cmd
}
