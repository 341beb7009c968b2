package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestAIFlagDefaults(t *testing.T) {
	flags := aiFlags()

	var hostFlag *cli.StringFlag
	for _, flag := range flags {
		if f, ok := flag.(*cli.StringFlag); ok && f.Name == "ai-host" {
			hostFlag = f
			break
		}
	}
	require.NotNil(t, hostFlag)
	assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)
}

func TestSaveCommandRequiresURL(t *testing.T) {
	app := &cli.App{
		Name: "curator",
		Commands: []*cli.Command{
			{
				Name:   "save",
				Action: saveCommand,
				Flags:  append(databaseFlags(), ownerFlag()),
			},
		},
	}

	err := app.Run([]string{"curator", "save", "--db", t.TempDir(), "--owner", "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	t.Run("valid levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG"} {
			app := &cli.App{
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "log-level", Value: "info"},
				},
				Before: setupLogger,
				Action: func(c *cli.Context) error { return nil },
			}
			err := app.Run([]string{"curator", "--log-level", level})
			assert.NoError(t, err, "level %q", level)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		app := &cli.App{
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
		err := app.Run([]string{"curator", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
