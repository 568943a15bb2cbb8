package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moodsync/server/internal/classifier"
)

var artifactPath string

var classifyCmd = &cobra.Command{
	Use:   "classify [text...]",
	Short: "Classify a statement with a model artifact",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := artifactPath
		if path == "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path = cfg.Classifier.ArtifactPath
		}
		if path == "" {
			return errors.New("no artifact: pass --artifact or set classifier.artifactPath")
		}

		m, err := classifier.Load(path)
		if err != nil {
			return err
		}

		text := strings.Join(args, " ")
		normalized := classifier.Normalize(text)
		if normalized == "" {
			return errors.New("statement is empty after normalization")
		}
		label, conf := m.Classify(normalized)

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, titleStyle.Render(label))
		fmt.Fprintln(out, predictionTable(m.Classes(), label, conf))
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&artifactPath, "artifact", "a", "", "model artifact (.msgpack or .json)")
}
