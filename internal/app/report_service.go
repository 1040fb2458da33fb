package app

import (
	"context"
	"math"
	"sort"

	"quiz-platform-service/internal/domain"
)

// PassThreshold is the score ratio at which a submission counts as passed.
const PassThreshold = 0.7

type ReportService struct {
	reports ReportRepository
}

func NewReportService(reports ReportRepository) *ReportService {
	return &ReportService{reports: reports}
}

// Statistics aggregates every submitted submission. Submissions with a zero
// total are counted but excluded from percentage figures.
func (s *ReportService) Statistics(ctx context.Context) (domain.Statistics, error) {
	rows, err := s.reports.ListScoredSubmissions(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	return aggregate(rows), nil
}

func (s *ReportService) Submissions(ctx context.Context, filter domain.SubmissionFilter) ([]domain.AdminSubmissionRow, error) {
	return s.reports.ListAdminSubmissions(ctx, filter)
}

type quizAccumulator struct {
	stats domain.QuizStatistics
	sum   float64
}

func aggregate(rows []domain.ScoredSubmission) domain.Statistics {
	stats := domain.Statistics{
		TotalSubmissions: len(rows),
		Quizzes:          []domain.QuizStatistics{},
	}

	perQuiz := make(map[int64]*quizAccumulator)
	var percentSum float64
	var scored, passed int
	for _, row := range rows {
		acc, ok := perQuiz[row.QuizID]
		if !ok {
			acc = &quizAccumulator{stats: domain.QuizStatistics{
				QuizID:    row.QuizID,
				Title:     row.QuizTitle,
				HighScore: row.Score,
				LowScore:  row.Score,
			}}
			perQuiz[row.QuizID] = acc
		}
		acc.stats.Attempts++
		acc.sum += row.Score
		acc.stats.HighScore = math.Max(acc.stats.HighScore, row.Score)
		acc.stats.LowScore = math.Min(acc.stats.LowScore, row.Score)

		if row.TotalPoints <= 0 {
			continue
		}
		ratio := row.Score / float64(row.TotalPoints)
		percentSum += ratio * 100
		scored++
		if ratio >= PassThreshold {
			passed++
		}
	}

	stats.TotalQuizzes = len(perQuiz)
	if scored > 0 {
		avg := round2(percentSum / float64(scored))
		rate := round2(float64(passed) / float64(scored) * 100)
		stats.AverageScore = &avg
		stats.PassRate = &rate
	}

	for _, acc := range perQuiz {
		acc.stats.AvgScore = round2(acc.sum / float64(acc.stats.Attempts))
		stats.Quizzes = append(stats.Quizzes, acc.stats)
	}
	sort.Slice(stats.Quizzes, func(i, j int) bool {
		return stats.Quizzes[i].QuizID < stats.Quizzes[j].QuizID
	})
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
