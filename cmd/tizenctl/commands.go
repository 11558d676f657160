package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/tvremote/go-tizenws/resilience"
	"github.com/tvremote/go-tizenws/tizen"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the app in the foreground whenever it changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			handler := &tizen.HandlerCallback{
				OnConnectFunc: func(_ *tizen.Client, ch tizen.ChannelName) {
					fmt.Fprintf(out, "%s connected %s\n", time.Now().Format(time.TimeOnly), ch)
				},
				OnDisconnectFunc: func(_ *tizen.Client, ch tizen.ChannelName) {
					fmt.Fprintf(out, "%s disconnected %s\n", time.Now().Format(time.TimeOnly), ch)
				},
				OnAppChangeFunc: func(_ *tizen.Client, app *tizen.App) {
					name := "(home)"
					if app != nil {
						name = app.String()
					}
					fmt.Fprintf(out, "%s app %s\n", time.Now().Format(time.TimeOnly), name)
				},
			}
			s, err := connect(cmd, sessionOptions{handler: handler})
			if err != nil {
				return err
			}
			defer s.close()
			<-cmd.Context().Done()
			return nil
		},
	}
}

func newKeyCmd() *cobra.Command {
	var delay time.Duration
	cmd := &cobra.Command{
		Use:     "key KEY...",
		Short:   "Send remote key presses, for example KEY_VOLUP",
		Example: "tizenctl key KEY_HOME KEY_RIGHT KEY_ENTER",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := connect(cmd, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.close()
			var opts []tizen.KeyOption
			if cmd.Flags().Changed("delay") {
				opts = append(opts, tizen.WithKeyPressDelay(delay))
			}
			keys := make([]string, len(args))
			for i, key := range args {
				keys[i] = normalizeKey(key)
			}
			return s.client.SendKeys(cmd.Context(), keys, opts...)
		},
	}
	cmd.Flags().DurationVar(&delay, "delay", tizen.DefaultKeyPressDelay, "pause after each key")
	return cmd
}

func normalizeKey(key string) string {
	key = strings.ToUpper(strings.TrimSpace(key))
	if !strings.HasPrefix(key, "KEY_") {
		key = "KEY_" + key
	}
	return key
}

func newLaunchCmd() *cobra.Command {
	var action, meta string
	cmd := &cobra.Command{
		Use:   "launch APP_ID",
		Short: "Start an installed app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := connect(cmd, sessionOptions{waitControl: true})
			if err != nil {
				return err
			}
			defer s.close()
			if err := s.client.RunApp(cmd.Context(), args[0], action, meta); err != nil {
				return err
			}
			// let the frame reach the TV before the sockets close
			return resilience.Sleep(cmd.Context(), 500*time.Millisecond)
		},
	}
	cmd.Flags().StringVar(&action, "action", "", "DEEP_LINK or NATIVE_LAUNCH, derived from the app type when empty")
	cmd.Flags().StringVar(&meta, "meta", "", "meta tag passed to natively launched apps")
	return cmd
}

func newAppsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apps",
		Short: "List the installed apps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			received := make(chan []tizen.App, 1)
			handler := &tizen.HandlerCallback{
				OnInstalledAppsFunc: func(_ *tizen.Client, apps []tizen.App) {
					select {
					case received <- apps:
					default:
					}
				},
			}
			s, err := connect(cmd, sessionOptions{handler: handler})
			if err != nil {
				return err
			}
			defer s.close()

			timeout, _ := cmd.Flags().GetDuration("timeout")
			var apps []tizen.App
			select {
			case apps = <-received:
			case <-time.After(timeout):
				return errors.New("timed out waiting for the installed apps")
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE")
			for _, app := range apps {
				fmt.Fprintf(w, "%s\t%s\t%d\n", app.ID, app.Name, app.Type)
			}
			return w.Flush()
		},
	}
}

func newSourceCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "source NAME",
		Short:     "Switch the input source",
		Long:      "Switch the input source. Known sources: " + strings.Join(tizen.Sources(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: tizen.Sources(),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := tizen.SourceKey(strings.ToUpper(args[0])); !ok {
				return errors.Wrapf(tizen.ErrUnknownSource, "%q", args[0])
			}
			s, err := connect(cmd, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.close()
			return s.client.SelectSource(cmd.Context(), args[0])
		},
	}
}

func newChannelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channel NUMBER|up|down",
		Short: "Tune to a TV channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := connect(cmd, sessionOptions{})
			if err != nil {
				return err
			}
			defer s.close()
			switch strings.ToLower(args[0]) {
			case "up", "+":
				return s.client.ChannelUp(cmd.Context())
			case "down", "-":
				return s.client.ChannelDown(cmd.Context())
			default:
				return s.client.SetChannel(cmd.Context(), args[0])
			}
		},
	}
}
