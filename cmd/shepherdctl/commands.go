package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"shepherd/internal/adapters/storage"
	accountStore "shepherd/internal/adapters/storage/account"
	memberStore "shepherd/internal/adapters/storage/member"
	serviceStore "shepherd/internal/adapters/storage/service"
	"shepherd/internal/adapters/token"
	"shepherd/internal/application/orchestrators"
	"shepherd/internal/application/projections"
	"shepherd/internal/domain/account"
	"shepherd/internal/domain/checkin"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			v, err := storage.SchemaVersion(db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
			return nil
		},
	}
}

func createAdminCommand() *cobra.Command {
	var email, password, role string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a staff login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			id, err := orchestrators.ExecuteCreateAccount(cmd.Context(), orchestrators.CreateAccountInput{
				Email:    email,
				Password: password,
				Role:     role,
			}, orchestrators.CreateAccountDeps{AccountStore: accountStore.NewSQLiteStore(db)})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s account %s (%s)\n", role, email, id)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", account.RoleAdmin, "admin or staff")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func addServiceCommand() *cobra.Command {
	var in orchestrators.SaveServiceInput
	cmd := &cobra.Command{
		Use:   "add-service",
		Short: "Create or update a recurring service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			s, err := orchestrators.ExecuteSaveService(cmd.Context(), in,
				orchestrators.SaveServiceDeps{ServiceStore: serviceStore.NewSQLiteStore(db)})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s: %s, %s at %s\n", s.ID, s.Name, s.Day, s.StartTime)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.ID, "id", "", "slug, e.g. sunday-am")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringVar(&in.Day, "day", "", "weekday, e.g. sunday")
	cmd.Flags().StringVar(&in.StartTime, "start", "", "start time as HH:MM")
	for _, f := range []string{"id", "name", "day", "start"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func listServicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list-services",
		Short: "List configured services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			rows, err := projections.QueryServices(cmd.Context(), serviceStore.NewSQLiteStore(db))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDAY\tSTART")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Name, r.Day, r.StartTime)
			}
			return tw.Flush()
		},
	}
}

func issueTokenCommand() *cobra.Command {
	var serviceID, date string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Sign a check-in token for one service session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			if date == "" {
				date = time.Now().In(cfg.Location).Format(checkin.DateLayout)
			}
			if ttl == 0 {
				ttl = cfg.TokenTTL
			}
			res, err := orchestrators.ExecuteIssueCheckinToken(cmd.Context(), orchestrators.IssueCheckinTokenInput{
				ServiceID: serviceID,
				Date:      date,
				TTL:       ttl,
			}, orchestrators.IssueCheckinTokenDeps{
				Tokens:       token.NewCodec(cfg.TokenSecret),
				ServiceStore: serviceStore.NewSQLiteStore(db),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "%s on %s, valid until %s\n", res.ServiceName, res.Date, res.ExpiresAt.In(cfg.Location).Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&serviceID, "service", "", "service id")
	cmd.Flags().StringVar(&date, "date", "", "session date as YYYY-MM-DD (default today)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default SHEPHERD_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("service")
	return cmd
}

func importMembersCommand() *cobra.Command {
	var dryRun, update bool
	cmd := &cobra.Command{
		Use:   "import-members <file.csv>",
		Short: "Import members from a CSV with NAME, EMAIL and PHONE columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			_, db, err := openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := orchestrators.ExecuteImportMembers(cmd.Context(), orchestrators.ImportMembersInput{
				Reader:     f,
				DryRun:     dryRun,
				UpdateMode: update,
			}, orchestrators.ImportMembersDeps{MemberStore: memberStore.NewSQLiteStore(db)})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if res.DryRun {
				fmt.Fprintln(out, "dry run: nothing was saved")
			}
			fmt.Fprintf(out, "rows %d, created %d, updated %d, skipped %d, errors %d\n",
				res.Total, res.Created, res.Updated, res.Skipped, len(res.Errors))
			for _, e := range res.Errors {
				fmt.Fprintf(out, "  row %d: %s\n", e.Row, e.Message)
			}
			if len(res.Unknown) > 0 {
				fmt.Fprintf(out, "ignored columns: %v\n", res.Unknown)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without saving")
	cmd.Flags().BoolVar(&update, "update", false, "update members whose email already exists")
	return cmd
}
