package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spigell/seoul-job-matcher/internal/analysis"
	"github.com/spigell/seoul-job-matcher/internal/logger"
	"github.com/spigell/seoul-job-matcher/internal/matching"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptYes = "예"
	PromptNo  = "아니오"
)

var errExit = errors.New("exit requested")

// askYesNo asks one clarification question. Tests replace it.
var askYesNo = func(label string) (bool, error) {
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}

	_, answer, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return false, errExit
		}
		return false, err
	}
	return answer == PromptYes, nil
}

// analyzer is the part of matching.Service the analyze command drives.
type analyzer interface {
	AnalyzeMany(ctx context.Context, userID string, jobIDs []string) map[string]matching.Outcome
	SubmitAnswers(ctx context.Context, userID, jobID string, answers []analysis.Answer) matching.Outcome
	RequestAnalysis(ctx context.Context, userID, jobID string) matching.Outcome
	Wait()
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <job-id>...",
	Short: "Analyse job postings against a user's resume",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAnalyze(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("user", "u", "", "user id whose resume is used (sample resume when empty or unknown)")
	analyzeCmd.Flags().BoolP("no-input", "n", false, "do not ask clarification questions")
	analyzeCmd.Flags().Bool("migrate", false, "apply database migrations before analysing")
}

func runAnalyze(cmd *cobra.Command, jobIDs []string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	migrate, _ := cmd.Flags().GetBool("migrate")
	d, err := buildDeps(ctx, config, migrate, logger)
	if err != nil {
		logger.Fatal("building dependencies", zap.Error(err))
	}
	defer d.close(logger)

	userID, _ := cmd.Flags().GetString("user")
	noInput, _ := cmd.Flags().GetBool("no-input")

	logger.Info("starting the analysis", zap.Strings("jobs", jobIDs), zap.String("user_id", userID))

	if err := analyzeJobs(ctx, d.service, userID, jobIDs, !noInput, os.Stdout, logger); err != nil {
		if errors.Is(err, errExit) {
			logger.Info("exiting", zap.String("reason", "interrupted"))
			return
		}
		logger.Error("analysis failed", zap.Error(err))
	}
}

// analyzeJobs runs the analyses concurrently, then walks the clarification
// questions of each job in order and prints the final outcomes.
func analyzeJobs(ctx context.Context, svc analyzer, userID string, jobIDs []string, interactive bool, out io.Writer, logger *zap.Logger) error {
	outcomes := svc.AnalyzeMany(ctx, userID, jobIDs)

	for _, jobID := range uniq(jobIDs) {
		o := outcomes[jobID]

		if o.State == matching.StateNeedsClarification && interactive {
			var err error
			o, err = clarify(ctx, svc, userID, o)
			if err != nil {
				return err
			}
		}

		logger.Info("analysis outcome", zap.String("job_id", jobID), zap.String("state", string(o.State)))
		outcomes[jobID] = o
	}

	// Advice is produced in the background; wait and re-read the cached results.
	svc.Wait()

	for _, jobID := range uniq(jobIDs) {
		o := outcomes[jobID]
		if o.State == matching.StateScored {
			o = svc.RequestAnalysis(ctx, userID, jobID)
		}
		printOutcome(out, o)
	}

	return nil
}

func clarify(ctx context.Context, svc analyzer, userID string, o matching.Outcome) (matching.Outcome, error) {
	for o.State == matching.StateNeedsClarification {
		answers := make([]analysis.Answer, 0, len(o.Questions))
		for _, q := range o.Questions {
			yes, err := askYesNo(q.Text)
			if err != nil {
				return o, err
			}
			answers = append(answers, q.Answer(yes))
		}
		o = svc.SubmitAnswers(ctx, userID, o.JobID, answers)
	}
	return o, nil
}

func printOutcome(w io.Writer, o matching.Outcome) {
	fmt.Fprintf(w, "== %s: %s\n", o.JobID, o.State)

	switch {
	case o.Score != nil:
		fmt.Fprintf(w, "적합도: %d점\n", *o.Score)
	case o.Message != "":
		fmt.Fprintln(w, o.Message)
	}
	if o.UsedSampleResume {
		fmt.Fprintln(w, "(이력서가 없어 예시 이력서로 분석했습니다)")
	}

	if o.Result == nil || o.Result.Failed() {
		return
	}

	printItems(w, "필수 조건", o.Result.Requirements.Items)
	printItems(w, "우대 조건", o.Result.Preferences.Items)

	for _, q := range o.Questions {
		fmt.Fprintf(w, "? %s\n", q.Text)
	}
	if len(o.Result.AdviceItems) > 0 {
		fmt.Fprintln(w, "조언:")
		for _, a := range o.Result.AdviceItems {
			fmt.Fprintf(w, "  - %s: %s\n", a.ItemText, a.AdviceText)
		}
	}
}

func printItems(w io.Writer, label string, items []analysis.Item) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", label)
	for _, item := range items {
		mark := "✗"
		switch {
		case item.ClarificationNeeded:
			mark = "?"
		case item.Matched:
			mark = "✓"
		}
		fmt.Fprintf(w, "  %s %s\n", mark, strings.TrimSpace(item.Text))
	}
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
