package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"saferun/internal/bootstrap"
	sessiondto "saferun/internal/modules/session/dto"
	"saferun/internal/platform/config"
	"saferun/internal/platform/geo"
	"saferun/internal/ui/watch"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globalFlags struct {
	dataDir    string
	configPath string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "saferun",
		Short:         "Personal safety sessions with automatic escalation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", ".", "directory holding saferun.yaml and the local database")
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (defaults to <data-dir>/saferun.yaml)")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newSweepCmd(flags))
	root.AddCommand(newSessionCmd(flags))
	root.AddCommand(newContactCmd(flags))
	root.AddCommand(newWatchCmd(flags))
	return root
}

// withApp wires the application for one command and releases it afterwards.
func withApp(ctx context.Context, flags *globalFlags, run func(ctx context.Context, app *bootstrap.App) error) error {
	cfg, err := config.Load(flags.dataDir, flags.configPath)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()
	return run(app.Logger.WithContext(ctx), app)
}

func newServeCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the overdue sweeper",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				return app.RunServer(ctx)
			})
		},
	}
}

func newSweepCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run a single overdue sweep pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				report, err := app.SweepCLI.RunOnce(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d escalated=%d delivery_failed=%d skipped=%d errors=%d took=%s\n",
					report.Scanned, report.Escalated, report.DeliveryFailed, report.Skipped, report.Errors, report.Took)
				return nil
			})
		},
	}
}

func newSessionCmd(flags *globalFlags) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Safety session lifecycle"}

	var ownerID string
	var minutes int
	start := &cobra.Command{
		Use:   "start --owner <id> --minutes <n>",
		Short: "Start a timer session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(ownerID) == "" {
				return fmt.Errorf("--owner is required")
			}
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.StartTimer(ctx, ownerID, minutes)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), "session started", out)
				return nil
			})
		},
	}
	start.Flags().StringVar(&ownerID, "owner", "", "owner id")
	start.Flags().IntVar(&minutes, "minutes", 30, "planned duration in minutes")

	var routeOwner string
	var from, to geo.Coordinate
	route := &cobra.Command{
		Use:   "route --owner <id> --start-lat .. --start-lng .. --end-lat .. --end-lng ..",
		Short: "Start a route session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(routeOwner) == "" {
				return fmt.Errorf("--owner is required")
			}
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.StartRoute(ctx, routeOwner, from, to)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), "route started", out)
				if r := out.Session.Route; r != nil {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "estimate: %.2f km, %d min\n", r.EstimatedDistanceKM, r.EstimatedMinutes)
				}
				return nil
			})
		},
	}
	route.Flags().StringVar(&routeOwner, "owner", "", "owner id")
	route.Flags().Float64Var(&from.Latitude, "start-lat", 0, "start latitude")
	route.Flags().Float64Var(&from.Longitude, "start-lng", 0, "start longitude")
	route.Flags().Float64Var(&to.Latitude, "end-lat", 0, "destination latitude")
	route.Flags().Float64Var(&to.Longitude, "end-lng", 0, "destination longitude")

	var checkInType string
	checkIn := &cobra.Command{
		Use:   "checkin <session-id>",
		Short: "Record a check-in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.CheckIn(ctx, args[0], checkInType)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), "checked in", out)
				return nil
			})
		},
	}
	checkIn.Flags().StringVar(&checkInType, "type", "safe", "check-in type: safe|emergency")

	var extendBy int
	extend := &cobra.Command{
		Use:   "extend <session-id>",
		Short: "Push a timer session deadline back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Extend(ctx, args[0], extendBy)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), "extended", out)
				return nil
			})
		},
	}
	extend.Flags().IntVar(&extendBy, "minutes", 15, "minutes to add")

	panicCmd := &cobra.Command{
		Use:   "panic <session-id>",
		Short: "Raise an emergency immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Panic(ctx, args[0])
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), "panic raised", out)
				return nil
			})
		},
	}

	end := &cobra.Command{
		Use:   "end <session-id>",
		Short: "End a session safely",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.End(ctx, args[0])
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), "session ended", out)
				return nil
			})
		},
	}

	var at geo.Coordinate
	position := &cobra.Command{
		Use:   "position <session-id> --lat .. --lng ..",
		Short: "Report the current position of a route session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Position(ctx, args[0], at)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "position recorded: %s distance=%.3fkm arrived=%t status=%s\n", out.Session.ID, out.DistanceKM, out.Arrived, out.Session.Status)
				if out.Notification != nil {
					printNotification(w, *out.Notification)
				}
				return nil
			})
		},
	}
	position.Flags().Float64Var(&at.Latitude, "lat", 0, "latitude")
	position.Flags().Float64Var(&at.Longitude, "lng", 0, "longitude")

	show := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				s, err := app.SessionCLI.Show(ctx, args[0])
				if err != nil {
					return err
				}
				printSession(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}

	var listOwner string
	list := &cobra.Command{
		Use:   "list --owner <id>",
		Short: "List sessions of an owner, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(listOwner) == "" {
				return fmt.Errorf("--owner is required")
			}
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				sessions, err := app.SessionCLI.List(ctx, listOwner)
				if err != nil {
					return err
				}
				if len(sessions) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no sessions")
					return nil
				}
				for _, s := range sessions {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\tcheck_ins=%d\n",
						s.ID, s.Kind, s.Status, s.Deadline.Format(time.RFC3339), s.CheckInCount)
				}
				return nil
			})
		},
	}
	list.Flags().StringVar(&listOwner, "owner", "", "owner id")

	session.AddCommand(start, route, checkIn, extend, panicCmd, end, position, show, list)
	return session
}

func newContactCmd(flags *globalFlags) *cobra.Command {
	contact := &cobra.Command{Use: "contact", Short: "Emergency contact of an owner"}

	var ownerName, contactName, phone string
	set := &cobra.Command{
		Use:   "set <owner-id> --name <contact> --phone <+E.164>",
		Short: "Set the emergency contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ContactCLI.Set(ctx, args[0], ownerName, contactName, phone)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "contact set: %s -> %s %s\n", out.OwnerID, out.ContactName, out.Phone)
				return nil
			})
		},
	}
	set.Flags().StringVar(&ownerName, "owner-name", "", "name used in alert messages")
	set.Flags().StringVar(&contactName, "name", "", "contact name")
	set.Flags().StringVar(&phone, "phone", "", "contact phone in E.164 form")

	show := &cobra.Command{
		Use:   "show <owner-id>",
		Short: "Show the emergency contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.ContactCLI.Show(ctx, args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "owner: %s (%s)\ncontact: %s\nphone: %s\nupdated: %s\n",
					out.OwnerID, out.OwnerName, out.ContactName, out.Phone, out.UpdatedAt.Format(time.RFC3339))
				return nil
			})
		},
	}

	contact.AddCommand(set, show)
	return contact
}

func newWatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <session-id>",
		Short: "Live terminal monitor for a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), flags, func(_ context.Context, app *bootstrap.App) error {
				return watch.Run(app.Sessions, args[0])
			})
		},
	}
}

func printResult(w io.Writer, what string, out sessiondto.ResultOutput) {
	s := out.Session
	_, _ = fmt.Fprintf(w, "%s: %s kind=%s status=%s deadline=%s\n", what, s.ID, s.Kind, s.Status, s.Deadline.Format(time.RFC3339))
	printNotification(w, out.Notification)
}

func printNotification(w io.Writer, n sessiondto.NotificationOutput) {
	switch {
	case n.Sent:
		_, _ = fmt.Fprintln(w, "notification: sent")
	case n.Error != "":
		_, _ = fmt.Fprintf(w, "notification: failed (%s)\n", n.Error)
	}
}

func printSession(w io.Writer, s sessiondto.SessionOutput) {
	_, _ = fmt.Fprintf(w, "id: %s\nowner: %s\nkind: %s\nstatus: %s\ncreated: %s\ndeadline: %s\ncheck_ins: %d\nextended: %dm\nescalated: %t\npanic: %t\n",
		s.ID, s.OwnerID, s.Kind, s.Status,
		s.CreatedAt.Format(time.RFC3339), s.Deadline.Format(time.RFC3339),
		s.CheckInCount, s.ExtendedMin, s.EscalationSent, s.PanicTriggered)
	if r := s.Route; r != nil {
		_, _ = fmt.Fprintf(w, "route: %s -> %s estimate=%.2fkm/%dmin arrived=%t\n", r.Start, r.End, r.EstimatedDistanceKM, r.EstimatedMinutes, r.Arrived)
		if r.DistanceKM != nil {
			_, _ = fmt.Fprintf(w, "distance_to_go: %.3fkm\n", *r.DistanceKM)
		}
	}
}
