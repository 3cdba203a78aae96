package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/models"
	"github.com/elise-dlc/evalio-api/internal/repository"
)

// ExportService renders a form's evaluations as CSV: one row per evaluated
// entity, one column per line.
type ExportService interface {
	FormCSV(ctx context.Context, formID uint) ([]byte, string, error)
}

type exportService struct {
	forms       repository.FormRepository
	evaluations repository.EvaluationRepository
	logger      zerolog.Logger
}

// NewExportService builds the CSV exporter.
func NewExportService(forms repository.FormRepository, evaluations repository.EvaluationRepository, logger zerolog.Logger) ExportService {
	return &exportService{
		forms:       forms,
		evaluations: evaluations,
		logger:      logger.With().Str("component", "export_service").Logger(),
	}
}

// FormCSV returns the CSV payload and a suggested filename.
func (s *exportService) FormCSV(ctx context.Context, formID uint) ([]byte, string, error) {
	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrFormNotFound
		}
		return nil, "", err
	}

	evaluations, err := s.evaluations.ListByForm(ctx, formID)
	if err != nil {
		return nil, "", err
	}

	var buffer bytes.Buffer
	writer := csv.NewWriter(&buffer)

	header := []string{"Entity"}
	var lineUIDs []string
	for _, section := range form.Sections {
		for _, line := range section.Lines {
			header = append(header, fmt.Sprintf("%s - %s (/%g)", section.Title, line.Title, line.MaxScore))
			lineUIDs = append(lineUIDs, line.UID)
		}
	}
	if err := writer.Write(header); err != nil {
		return nil, "", err
	}

	for _, evaluation := range evaluations {
		row := make([]string, 0, len(lineUIDs)+1)
		row = append(row, entityLabel(evaluation))

		byLine := make(map[string]models.Score, len(evaluation.Scores))
		for _, score := range evaluation.Scores {
			byLine[score.LineUID] = score
		}
		for _, uid := range lineUIDs {
			row = append(row, formatCell(byLine[uid]))
		}

		if err := writer.Write(row); err != nil {
			return nil, "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("form_%d_evaluations.csv", form.ID)
	s.logger.Info().Uint("form_id", form.ID).Int("rows", len(evaluations)).Msg("form exported")

	return buffer.Bytes(), filename, nil
}

// entityLabel names the evaluated target for the export's first column.
func entityLabel(evaluation models.Evaluation) string {
	switch evaluation.EvaluationType {
	case models.AssociationStudent:
		if evaluation.Student != nil {
			return fmt.Sprintf("%s %s", evaluation.Student.FirstName, evaluation.Student.LastName)
		}
	case models.AssociationGroup:
		if evaluation.Group != nil {
			return evaluation.Group.Name
		}
	case models.AssociationSubGroup:
		if evaluation.SubGroup != nil {
			return evaluation.SubGroup.Name
		}
	case models.AssociationPromotion:
		if evaluation.Promotion != nil {
			return evaluation.Promotion.Name
		}
	}
	return fmt.Sprintf("evaluation %d", evaluation.ID)
}

// formatCell renders one score cell: the common score when present,
// otherwise the mean of the individual scores, otherwise zero.
func formatCell(score models.Score) string {
	if score.CommonScore != nil {
		return strconv.FormatFloat(*score.CommonScore, 'f', -1, 64)
	}
	individuals := score.IndividualScoreList()
	if len(individuals) == 0 {
		return "0"
	}
	sum := 0.0
	for _, individual := range individuals {
		sum += individual.Score
	}
	return strconv.FormatFloat(sum/float64(len(individuals)), 'f', 2, 64)
}
