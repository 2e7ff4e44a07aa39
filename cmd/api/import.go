package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	appsurveys "github.com/bryanwahyu/wifi-survey/internal/application/surveys"
	"github.com/bryanwahyu/wifi-survey/internal/domain/uploads"
)

var (
	importEnv  int64
	importUser int64
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Upload a CSV file into an environment",
	Long: `Runs the same upload path as the HTTP API against the configured store
and prints the result as JSON. Exits non-zero when the file is rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().Int64Var(&importEnv, "env", 0, "Environment ID")
	importCmd.Flags().Int64Var(&importUser, "user", 0, "Uploader user ID")
	_ = importCmd.MarkFlagRequired("env")
	_ = importCmd.MarkFlagRequired("user")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.surveys.Upload(cmd.Context(), appsurveys.UploadCommand{
		EnvironmentID: importEnv,
		UploaderID:    importUser,
		FileName:      filepath.Base(args[0]),
		Content:       content,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if res.Status == uploads.StatusRejected || res.Status == uploads.StatusFailed {
		return fmt.Errorf("upload %s: %s", res.Status, res.Message)
	}
	return nil
}
