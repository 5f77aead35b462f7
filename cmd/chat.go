package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spigell/talent-intake/internal/channel"
	"github.com/spigell/talent-intake/internal/document"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	chatCommand         = "chat"
	chatDocumentCommand = "/doc"
	chatExitCommand     = "/exit"
)

var chatCmd = &cobra.Command{
	Use:   chatCommand,
	Short: "Talk to the intake assistant from the terminal",
	Long: fmt.Sprintf(`Starts a local conversation. Type %s <url> [mime-type] to send a document
and %s to leave. Replies from background extraction are printed before the next prompt.`,
		chatDocumentCommand, chatExitCommand),
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("identity", "i", "console", "identity used for the local session")
	chatCmd.Flags().StringP("tenant", "t", "", "tenant id; asks when several tenants are configured")
}

func chat(cmd *cobra.Command) {
	config, logger := prepare(chatCommand, false)
	defer logger.Sync()

	ctx := context.Background()
	app, err := buildApplication(ctx, config, channel.NewConsoleMessenger(os.Stdout), logger)
	if err != nil {
		logger.Fatal("building the application", zap.Error(err))
	}
	defer app.Close()

	identity, _ := cmd.Flags().GetString("identity")
	tenantID, _ := cmd.Flags().GetString("tenant")
	if tenantID == "" {
		tenantID, err = selectTenant(app.tenants.IDs())
		if err != nil {
			logger.Info("exiting", zap.String("reason", err.Error()))
			return
		}
	}
	if _, ok := app.tenants.Get(tenantID); !ok {
		logger.Fatal("unknown tenant", zap.String("tenant", tenantID), zap.Strings("configured", app.tenants.IDs()))
	}

	prompt := promptui.Prompt{Label: "You"}
	for {
		line, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				break
			}
			logger.Fatal("reading input", zap.Error(err))
		}

		line = strings.TrimSpace(line)
		if line == chatExitCommand {
			break
		}

		ev, err := chatEvent(identity, tenantID, line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		if err := app.machine.HandleEvent(ctx, ev); err != nil {
			logger.Error("handling message", zap.Error(err))
		}
		app.machine.Wait()
	}

	app.machine.Wait()
}

func selectTenant(ids []string) (string, error) {
	if len(ids) == 1 {
		return ids[0], nil
	}

	sel := promptui.Select{
		Label: "Tenant",
		Items: ids,
	}
	_, id, err := sel.Run()
	if err != nil {
		return "", fmt.Errorf("no tenant selected: %w", err)
	}
	return id, nil
}

// chatEvent turns a console line into an event; "/doc <url> [mime-type]" attaches a document.
func chatEvent(identity, tenantID, line string) (channel.Event, error) {
	ev := channel.Event{Identity: identity, TenantID: tenantID, Text: line}

	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != chatDocumentCommand {
		return ev, nil
	}
	if len(fields) < 2 {
		return ev, fmt.Errorf("usage: %s <url> [mime-type]", chatDocumentCommand)
	}

	media := &document.Media{URL: fields[1]}
	if len(fields) > 2 {
		media.MIMEType = fields[2]
	} else {
		media.MIMEType = guessMIMEType(fields[1])
	}
	ev.Text = ""
	ev.Media = media
	return ev, nil
}

func guessMIMEType(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	default:
		return ""
	}
}
