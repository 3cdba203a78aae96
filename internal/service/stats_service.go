package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/elise-dlc/evalio-api/internal/dto"
	"github.com/elise-dlc/evalio-api/internal/observability"
	"github.com/elise-dlc/evalio-api/internal/repository"
)

// StatsService aggregates recorded scores into per-line statistics and
// global entity counts. Per-form results are cached in Redis and dropped
// whenever the form's evaluations change; the overview is cached on TTL
// expiry alone.
type StatsService interface {
	FormStatistics(ctx context.Context, formID uint) (dto.FormStatisticsResponse, error)
	Overview(ctx context.Context) (dto.OverviewStatsResponse, error)
	InvalidateForm(ctx context.Context, formID uint)
}

type statsService struct {
	forms       repository.FormRepository
	evaluations repository.EvaluationRepository
	students    repository.StudentRepository
	promotions  repository.PromotionRepository
	groups      repository.GroupRepository
	subGroups   repository.SubGroupRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewStatsService builds the statistics service. A nil cache disables
// caching.
func NewStatsService(
	forms repository.FormRepository,
	evaluations repository.EvaluationRepository,
	students repository.StudentRepository,
	promotions repository.PromotionRepository,
	groups repository.GroupRepository,
	subGroups repository.SubGroupRepository,
	cache *redis.Client,
	ttl time.Duration,
	logger zerolog.Logger,
) StatsService {
	return &statsService{
		forms:       forms,
		evaluations: evaluations,
		students:    students,
		promotions:  promotions,
		groups:      groups,
		subGroups:   subGroups,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "stats_service").Logger(),
	}
}

func statsCacheKey(formID uint) string {
	return fmt.Sprintf("stats:form:%d", formID)
}

const overviewCacheKey = "stats:overview"

func (s *statsService) FormStatistics(ctx context.Context, formID uint) (dto.FormStatisticsResponse, error) {
	cacheKey := statsCacheKey(formID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var response dto.FormStatisticsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.StatsCacheOutcomes().WithLabelValues("hit").Inc()
				s.logger.Debug().Uint("form_id", formID).Msg("stats cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read stats cache")
		}
		observability.StatsCacheOutcomes().WithLabelValues("miss").Inc()
	}

	form, err := s.forms.GetByID(ctx, formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FormStatisticsResponse{}, ErrFormNotFound
		}
		return dto.FormStatisticsResponse{}, err
	}

	evaluations, err := s.evaluations.ListByForm(ctx, formID)
	if err != nil {
		return dto.FormStatisticsResponse{}, err
	}

	// Pool common and individual values per line into one population.
	values := make(map[string][]float64)
	for _, evaluation := range evaluations {
		for _, score := range evaluation.Scores {
			values[score.LineUID] = append(values[score.LineUID], score.RawValues()...)
		}
	}

	response := dto.FormStatisticsResponse{
		FormID:           form.ID,
		FormTitle:        form.Title,
		TotalEvaluations: len(evaluations),
	}
	for _, line := range form.Lines() {
		stats := dto.LineStatistics{
			LineUID:  line.UID,
			Title:    line.Title,
			MaxScore: line.MaxScore,
			Type:     line.Type,
		}
		population := values[line.UID]
		stats.Count = len(population)
		if len(population) > 0 {
			min, max, sum := population[0], population[0], 0.0
			for _, value := range population {
				if value < min {
					min = value
				}
				if value > max {
					max = value
				}
				sum += value
			}
			stats.Average = sum / float64(len(population))
			stats.Min = &min
			stats.Max = &max
		}
		response.Lines = append(response.Lines, stats)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store stats cache")
			}
		}
	}

	return response, nil
}

// Overview counts every entity kind. Results are cached under a single key
// and expire on the TTL alone; entity writes are far rarer than dashboard
// reads.
func (s *statsService) Overview(ctx context.Context) (dto.OverviewStatsResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, overviewCacheKey).Result(); err == nil {
			var response dto.OverviewStatsResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				observability.StatsCacheOutcomes().WithLabelValues("hit").Inc()
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read overview cache")
		}
		observability.StatsCacheOutcomes().WithLabelValues("miss").Inc()
	}

	var (
		response dto.OverviewStatsResponse
		err      error
	)

	if response.Students, err = s.students.Count(ctx); err != nil {
		return dto.OverviewStatsResponse{}, err
	}
	if response.Promotions, err = s.promotions.Count(ctx); err != nil {
		return dto.OverviewStatsResponse{}, err
	}
	if response.Groups, err = s.groups.Count(ctx); err != nil {
		return dto.OverviewStatsResponse{}, err
	}
	if response.SubGroups, err = s.subGroups.Count(ctx); err != nil {
		return dto.OverviewStatsResponse{}, err
	}
	if response.Forms, err = s.forms.Count(ctx); err != nil {
		return dto.OverviewStatsResponse{}, err
	}
	if response.Evaluations, err = s.evaluations.Count(ctx); err != nil {
		return dto.OverviewStatsResponse{}, err
	}

	if s.cache != nil {
		if payload, err := json.Marshal(response); err == nil {
			if err := s.cache.Set(ctx, overviewCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store overview cache")
			}
		}
	}

	return response, nil
}

// InvalidateForm drops the cached statistics of one form. Failures are
// logged and swallowed; the cache entry expires on its own TTL anyway.
func (s *statsService) InvalidateForm(ctx context.Context, formID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey(formID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("form_id", formID).Msg("failed to invalidate stats cache")
	}
}
