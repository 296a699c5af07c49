package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file (.yaml, .json or .toml)",
		Sources: cli.EnvVars("STREAMFLOW_CONFIG"),
	}
}

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Run the HTTP API",
			Action: r.Serve,
		},
		{
			Name:   "migrate",
			Usage:  "Create or update the database schema",
			Action: r.Migrate,
		},
		{
			Name:  "create-admin",
			Usage: "Create an admin account, or promote an existing one",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Usage:    "Account email",
					Required: true,
				},
				&cli.StringFlag{
					Name:    "password",
					Usage:   "Account password, required for new accounts",
					Sources: cli.EnvVars("STREAMFLOW_ADMIN_PASSWORD"),
				},
				&cli.StringFlag{
					Name:  "name",
					Usage: "Display name",
				},
				&cli.BoolFlag{
					Name:  "super",
					Usage: "Grant the super admin role",
				},
			},
			Action: r.CreateAdmin,
		},
		{
			Name:  "seed",
			Usage: "Load a small demo catalog",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "publish",
					Usage: "Publish the seeded entries",
					Value: true,
				},
			},
			Action: r.Seed,
		},
	}
}
