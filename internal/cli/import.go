package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"family-quiz-sync/internal/config"
	"family-quiz-sync/internal/domain"
	pgloader "family-quiz-sync/internal/infra/postgres"
)

// quizFile is the authoring format accepted by import.
type quizFile struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// NewImportCmd loads quizzes from a YAML file into the Postgres library.
func NewImportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Validate and save quizzes into the quiz library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			applyConfigLevel(cfg.Log.Level)

			quizzes, err := readQuizFile(args[0])
			if err != nil {
				return err
			}

			db, err := openBun(cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			writer := pgloader.NewQuizWriter(db)

			var failed int
			for _, quiz := range quizzes {
				if err := writer.SaveQuiz(cmd.Context(), quiz); err != nil {
					failed++
					log.Error().Err(err).Str("quiz_id", quiz.ID).Str("title", quiz.Title).Msg("quiz rejected")
					continue
				}
				log.Info().Str("quiz_id", quiz.ID).Str("title", quiz.Title).Int("questions", len(quiz.Questions)).Msg("quiz saved")
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d quizzes not imported", failed, len(quizzes))
			}
			return nil
		},
	}
}

// readQuizFile parses the file and assigns ids to quizzes that have none.
func readQuizFile(path string) ([]domain.Quiz, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var file quizFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Quizzes) == 0 {
		return nil, errors.New("no quizzes in file")
	}
	for i := range file.Quizzes {
		if file.Quizzes[i].ID == "" {
			file.Quizzes[i].ID = uuid.NewString()
		}
	}
	return file.Quizzes, nil
}
