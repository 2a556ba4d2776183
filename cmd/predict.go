package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/retentioniq/internal/ai/gemini"
	"github.com/spigell/retentioniq/internal/attrition"
	"github.com/spigell/retentioniq/internal/logger"
	"github.com/spigell/retentioniq/internal/model"
	"github.com/spigell/retentioniq/internal/pipeline"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict attrition risk for one employee",
	Long: "Predict attrition risk for one employee. Without --file the employee " +
		"details are asked interactively, pre-filled with typical values.",
	Run: func(cmd *cobra.Command, _ []string) {
		predict(cmd)
	},
}

func init() {
	rootCmd.AddCommand(predictCmd)

	predictCmd.Flags().StringP("file", "f", "", "JSON file with the employee record ('-' for stdin)")
	predictCmd.Flags().StringP("output", "o", "text", "output format: text or json")
}

func predict(cmd *cobra.Command) {
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

	art, err := model.Load(modelConfig(config.Model), logger)
	if err != nil {
		logger.Fatal("loading model artifacts", zap.Error(err))
	}
	defer art.Close()

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil && !errors.Is(err, errAIDisabled) {
		logger.Warn("generative model is not available", zap.Error(err))
	}

	p, err := pipeline.New(art, newExplainer(generator, config.AI, logger), logger)
	if err != nil {
		logger.Fatal("building the pipeline", zap.Error(err))
	}

	input, err := readRecord(cmd)
	if err != nil {
		logger.Fatal("reading employee record", zap.Error(err))
	}

	record, err := attrition.Parse(input)
	if err != nil {
		logger.Fatal("invalid employee record", zap.Error(err))
	}

	result, err := p.Run(ctx, record)
	if err != nil {
		logger.Fatal("prediction failed", zap.Error(err))
	}

	if err := printResult(cmd.OutOrStdout(), result, cmd.Flag("output").Value.String()); err != nil {
		logger.Fatal("printing result", zap.Error(err))
	}
}

func readRecord(cmd *cobra.Command) (map[string]any, error) {
	path := cmd.Flag("file").Value.String()
	if path == "" {
		return askRecord()
	}

	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var input map[string]any
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return input, nil
}

// askRecord walks through every editable field with promptui.
func askRecord() (map[string]any, error) {
	defaults := attrition.Default().Columns()
	input := make(map[string]any, len(attrition.Fields))

	for _, f := range attrition.Editable() {
		if f.Kind == attrition.KindCategorical {
			current, _ := defaults[f.Name].(string)
			sel := promptui.Select{
				Label:     f.Label,
				Items:     f.Options,
				CursorPos: indexOf(f.Options, current),
				Size:      len(f.Options),
			}
			_, value, err := sel.Run()
			if err != nil {
				return nil, err
			}
			input[f.Name] = value
			continue
		}

		field := f
		pr := promptui.Prompt{
			Label:    fmt.Sprintf("%s [%g-%g]", f.Label, f.Min, f.Max),
			Default:  strconv.FormatFloat(defaults[f.Name].(float64), 'f', -1, 64),
			Validate: func(s string) error { _, err := parseBounded(s, field); return err },
		}
		raw, err := pr.Run()
		if err != nil {
			return nil, err
		}
		value, err := parseBounded(raw, f)
		if err != nil {
			return nil, err
		}
		input[f.Name] = value
	}

	return input, nil
}

func parseBounded(s string, f attrition.Field) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, errors.New("enter a whole number")
	}
	if float64(v) < f.Min || float64(v) > f.Max {
		return 0, fmt.Errorf("must be between %g and %g", f.Min, f.Max)
	}
	return v, nil
}

func indexOf(values []string, v string) int {
	for i, x := range values {
		if x == v {
			return i
		}
	}
	return 0
}

func printResult(w io.Writer, result *pipeline.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(result)
	case "text", "":
		fmt.Fprintf(w, "Attrition Probability: %s (%s risk)\n", gemini.FormatProbability(result.Probability), result.Band)
		if result.Narrative.Content != "" {
			fmt.Fprintf(w, "\n%s\n", result.Narrative.Content)
		}
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
