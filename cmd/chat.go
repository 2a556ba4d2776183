package cmd

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/retentioniq/internal/insights"
	"github.com/spigell/retentioniq/internal/logger"
)

const (
	chatClear = "/clear"
	chatExit  = "/exit"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask the HR analytics assistant about employee attrition",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func chat(cmd *cobra.Command) {
	ctx := cmd.Context()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("chat needs the generative model", zap.Error(err))
	}

	ds := loadDataset(config.Dataset, logger)
	conversation := insights.NewChat(generator, ds.Preview(previewRows(config.Dataset)), logger, nil)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Ask a question about employee attrition. %s resets the conversation, %s quits.\n", chatClear, chatExit)

	prompt := promptui.Prompt{Label: "You"}
	for {
		question, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return
		}
		if err != nil {
			logger.Fatal("reading question", zap.Error(err))
		}

		switch strings.TrimSpace(question) {
		case "":
			continue
		case chatExit:
			return
		case chatClear:
			conversation.Clear()
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}

		entry, err := conversation.Ask(ctx, question)
		if err != nil {
			logger.Warn("question rejected", zap.Error(err))
			continue
		}
		fmt.Fprintf(out, "\n%s\n\n", entry.Content)
	}
}
