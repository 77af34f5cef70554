package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/urfave/cli/v2"

	"github.com/noah-isme/results-app/internal/models"
	"github.com/noah-isme/results-app/internal/report"
	"github.com/noah-isme/results-app/internal/session"
	"github.com/noah-isme/results-app/internal/tui"
	"github.com/noah-isme/results-app/pkg/export"
	"github.com/noah-isme/results-app/pkg/logger"
	"github.com/noah-isme/results-app/pkg/storage"
)

func loginCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and remember the token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"RESULTS_PASSWORD"}},
		},
		Action: func(cCtx *cli.Context) error {
			f, err := e.accounts.Login(cCtx.Context, cCtx.String("email"), cCtx.String("password"))
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Signed in as %s\n", displayName(f.User, f.Email))
			return nil
		},
	}
}

func registerCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account and sign in",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Required: true},
			&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"RESULTS_PASSWORD"}},
			&cli.StringFlag{Name: "first-name", Required: true},
			&cli.StringFlag{Name: "last-name", Required: true},
		},
		Action: func(cCtx *cli.Context) error {
			f, err := e.accounts.Register(cCtx.Context, models.RegisterRequest{
				Email:     cCtx.String("email"),
				Password:  cCtx.String("password"),
				FirstName: cCtx.String("first-name"),
				LastName:  cCtx.String("last-name"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Registered and signed in as %s\n", displayName(f.User, f.Email))
			return nil
		},
	}
}

func logoutCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Forget the saved token",
		Action: func(cCtx *cli.Context) error {
			if err := e.accounts.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(e.out, "Signed out")
			return nil
		},
	}
}

func sessionsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List the current and previous sessions",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "count", Aliases: []string{"n"}, Usage: "Number of sessions (defaults to RECENT_SESSIONS)"},
		},
		Action: func(cCtx *cli.Context) error {
			count := e.cfg.Client.RecentSessions
			if cCtx.IsSet("count") {
				count = cCtx.Int("count")
			}
			for _, id := range session.Recent(count, session.Current(e.now())) {
				fmt.Fprintf(e.out, "%s\t%s\n", id, session.Format(id))
			}
			return nil
		},
	}
}

func sessionFlag() cli.Flag {
	return &cli.StringFlag{Name: "session", Aliases: []string{"s"}, Usage: "Session id such as 20151, the current session when empty"}
}

func parseSession(cCtx *cli.Context) (session.ID, error) {
	raw := cCtx.String("session")
	if raw == "" {
		return "", nil
	}
	return session.Parse(raw)
}

func resultsCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "results",
		Usage: "Show the results of a session",
		Flags: []cli.Flag{sessionFlag()},
		Action: func(cCtx *cli.Context) error {
			return e.showResults(cCtx, false)
		},
	}
}

func refreshCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "refresh",
		Usage: "Ask the server to crawl now, then show the session",
		Flags: []cli.Flag{sessionFlag()},
		Action: func(cCtx *cli.Context) error {
			return e.showResults(cCtx, true)
		},
	}
}

func (e *env) showResults(cCtx *cli.Context, refresh bool) error {
	id, err := parseSession(cCtx)
	if err != nil {
		return err
	}
	if _, err := e.signedIn(); err != nil {
		return err
	}
	view, err := e.loadResults(cCtx.Context, id, refresh)
	if err != nil {
		return err
	}

	fmt.Fprintln(e.out, report.Title(view.shown))
	data := report.Dataset(view.results)
	for _, note := range data.Notes {
		fmt.Fprintln(e.out, note)
	}
	if len(data.Rows) == 0 {
		fmt.Fprintln(e.out, "No classes in this session.")
		return nil
	}
	fmt.Fprintln(e.out, renderTable(data))
	return nil
}

func renderTable(data export.Dataset) string {
	rows := make([][]string, 0, len(data.Rows))
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = row[header]
		}
		rows = append(rows, record)
	}
	return newTable(data.Headers, rows)
}

var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// newTable pads every cell. Unpadded, a cell exactly as wide as its column
// is cut with an ellipsis.
func newTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
		Headers(headers...).
		Rows(rows...).
		String()
}

func configCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or change the crawler config",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the crawler config and tracked classes",
				Action: func(cCtx *cli.Context) error {
					if _, err := e.signedIn(); err != nil {
						return err
					}
					s, err := e.openSetup(cCtx.Context)
					if err != nil {
						return err
					}
					defer s.close()
					if s.config == nil {
						return errLoadFailed
					}
					printConfig(e, *s.config)
					printClasses(e, s.classes)
					return nil
				},
			},
			{
				Name:  "set",
				Usage: "Change fields of the crawler config; unset flags keep their value",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "status", Usage: "Enable the crawler"},
					&cli.StringFlag{Name: "code", Usage: "Permanent code"},
					&cli.StringFlag{Name: "nip", Usage: "NIP"},
					&cli.StringFlag{Name: "email", Usage: "Notification email"},
				},
				Action: func(cCtx *cli.Context) error {
					if _, err := e.signedIn(); err != nil {
						return err
					}
					s, err := e.openSetup(cCtx.Context)
					if err != nil {
						return err
					}
					defer s.close()
					if s.config == nil {
						return errLoadFailed
					}
					cfg := *s.config
					if cCtx.IsSet("status") {
						cfg.Status = cCtx.Bool("status")
					}
					if cCtx.IsSet("code") {
						cfg.Code = cCtx.String("code")
					}
					if cCtx.IsSet("nip") {
						cfg.Nip = cCtx.String("nip")
					}
					if cCtx.IsSet("email") {
						cfg.NotificationEmail = cCtx.String("email")
					}
					if err := s.save(cfg); err != nil {
						return authFailure(err)
					}
					printConfig(e, cfg)
					return nil
				},
			},
		},
	}
}

func printConfig(e *env, cfg models.CrawlerConfig) {
	status := "disabled"
	if cfg.Status {
		status = "enabled"
	}
	fmt.Fprintf(e.out, "Crawler: %s\nCode: %s\nNIP: %s\nNotification email: %s\n",
		status, cfg.Code, strings.Repeat("*", len(cfg.Nip)), cfg.NotificationEmail)
}

func printClasses(e *env, classes []models.CrawlerClass) {
	if len(classes) == 0 {
		fmt.Fprintln(e.out, "No tracked classes.")
		return
	}
	rows := make([][]string, 0, len(classes))
	for _, class := range classes {
		rows = append(rows, []string{class.ID, class.Name, class.Group, session.Format(session.ID(class.Year))})
	}
	fmt.Fprintln(e.out, newTable([]string{"ID", "Class", "Group", "Session"}, rows))
}

func classFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Required: required, Usage: "Course code such as INF1120"},
		&cli.StringFlag{Name: "group", Required: required},
		&cli.StringFlag{Name: "year", Required: required, Usage: "Session id such as 20151"},
	}
}

func classesCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "classes",
		Usage: "Manage the classes tracked by the crawler",
		Before: func(cCtx *cli.Context) error {
			_, err := e.signedIn()
			return err
		},
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List tracked classes",
				Action: func(cCtx *cli.Context) error {
					classes, err := e.api.GetConfigClasses(cCtx.Context)
					if err != nil {
						return authFailure(err)
					}
					printClasses(e, classes)
					return nil
				},
			},
			{
				Name:  "add",
				Usage: "Track a class",
				Flags: classFlags(true),
				Action: func(cCtx *cli.Context) error {
					class := models.CrawlerClass{Name: cCtx.String("name"), Group: cCtx.String("group"), Year: cCtx.String("year")}
					if _, err := session.Parse(class.Year); err != nil {
						return err
					}
					created, err := e.api.CreateConfigClass(cCtx.Context, class)
					if err != nil {
						return authFailure(err)
					}
					fmt.Fprintf(e.out, "Tracking %s (%s) as %s\n", created.Name, created.Group, created.ID)
					return nil
				},
			},
			{
				Name:  "edit",
				Usage: "Change a tracked class",
				Flags: append([]cli.Flag{&cli.StringFlag{Name: "id", Required: true}}, classFlags(false)...),
				Action: func(cCtx *cli.Context) error {
					classes, err := e.api.GetConfigClasses(cCtx.Context)
					if err != nil {
						return authFailure(err)
					}
					id := cCtx.String("id")
					var class *models.CrawlerClass
					for i := range classes {
						if classes[i].ID == id {
							class = &classes[i]
						}
					}
					if class == nil {
						return fmt.Errorf("no tracked class %q", id)
					}
					if cCtx.IsSet("name") {
						class.Name = cCtx.String("name")
					}
					if cCtx.IsSet("group") {
						class.Group = cCtx.String("group")
					}
					if cCtx.IsSet("year") {
						class.Year = cCtx.String("year")
					}
					updated, err := e.api.UpdateConfigClass(cCtx.Context, *class)
					if err != nil {
						return authFailure(err)
					}
					fmt.Fprintf(e.out, "Updated %s (%s) %s\n", updated.Name, updated.Group, session.Format(session.ID(updated.Year)))
					return nil
				},
			},
			{
				Name:      "rm",
				Usage:     "Stop tracking a class",
				ArgsUsage: "<id>",
				Action: func(cCtx *cli.Context) error {
					id := cCtx.Args().First()
					if id == "" {
						return errors.New("class id is required")
					}
					if err := e.api.DeleteConfigClass(cCtx.Context, id); err != nil {
						return authFailure(err)
					}
					fmt.Fprintf(e.out, "Removed %s\n", id)
					return nil
				},
			},
		},
	}
}

func exportCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write the results of a session as CSV or PDF",
		Flags: []cli.Flag{
			sessionFlag(),
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: string(export.FormatCSV), Usage: "csv or pdf"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "File to write, results-<session>.<format> when empty"},
			&cli.StringFlag{Name: "dir", Value: ".", Usage: "Directory for relative output names"},
		},
		Action: func(cCtx *cli.Context) error {
			format, err := export.ParseFormat(cCtx.String("format"))
			if err != nil {
				return err
			}
			id, err := parseSession(cCtx)
			if err != nil {
				return err
			}
			if _, err := e.signedIn(); err != nil {
				return err
			}
			view, err := e.loadResults(cCtx.Context, id, false)
			if err != nil {
				return err
			}

			doc, err := report.Render(format, view.results, view.shown)
			if err != nil {
				return err
			}
			store, err := storage.NewLocalStorage(cCtx.String("dir"))
			if err != nil {
				return err
			}
			name := cCtx.String("output")
			if name == "" {
				name = report.FileName(view.shown, format)
			}
			path, err := store.Save(name, doc)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.out, "Wrote %s\n", path)
			return nil
		},
	}
}

func tuiCommand(e *env) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Open the interactive results and setup screens",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-file", Usage: "Write logs here while the screens are open", EnvVars: []string{"LOG_FILE"}},
		},
		Action: func(cCtx *cli.Context) error {
			if _, err := e.signedIn(); err != nil {
				return err
			}
			log, err := logger.NewFile(e.cfg, cCtx.String("log-file"))
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			return tui.Run(cCtx.Context, e.api, tui.Options{
				Logger:         log,
				RecentSessions: e.cfg.Client.RecentSessions,
				Now:            e.now,
			})
		},
	}
}

func displayName(user *models.User, email string) string {
	if user == nil || user.FirstName == "" {
		return email
	}
	return strings.TrimSpace(user.FirstName + " " + user.LastName)
}
