package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/canvasql/internal/cli/config"
)

// watchSettle coalesces editor write bursts into one recompile.
const watchSettle = 200 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [canvas-file]",
		Short: "Recompile a canvas file on every change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := getConfig()
			path := canvasPath(cfg, args)
			if path == "" {
				return errors.New("no canvas file to watch")
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("failed to create watcher: %w", err)
			}
			defer func() { _ = watcher.Close() }()

			// Watch the directory: editors replace files on save, which
			// drops a watch on the file itself.
			if err := watcher.Add(filepath.Dir(path)); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			compileAndPrint(out, cfg, path)

			var settle *time.Timer
			recompile := make(chan struct{}, 1)
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case <-recompile:
					compileAndPrint(out, cfg, path)
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if filepath.Clean(event.Name) != filepath.Clean(path) {
						continue
					}
					if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
						continue
					}
					if settle != nil {
						settle.Stop()
					}
					settle = time.AfterFunc(watchSettle, func() {
						select {
						case recompile <- struct{}{}:
						default:
						}
					})
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
				}
			}
		},
	}
}

func compileAndPrint(out io.Writer, cfg *config.Config, path string) {
	s, err := loadSession(cfg, path)
	if err != nil {
		fmt.Fprintf(out, "-- %v\n", err)
		return
	}
	defer s.Close()

	fmt.Fprintf(out, "-- %s @ %s\n", path, time.Now().Format(time.TimeOnly))
	fmt.Fprintln(out, s.SQL())
	if res := s.Validate(); !res.OK {
		fmt.Fprintf(out, "-- syntax: %s\n", res.Message)
	}
	fmt.Fprintln(out)
}
