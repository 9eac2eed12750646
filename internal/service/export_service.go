package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fitdesk/coach-ops-api/internal/models"
	"github.com/fitdesk/coach-ops-api/internal/timeline"
	"github.com/fitdesk/coach-ops-api/pkg/export"
	"github.com/fitdesk/coach-ops-api/pkg/storage"
)

type exportChallengeSource interface {
	List(ctx context.Context, filter models.ChallengeFilter) ([]models.Challenge, int, error)
	ListEnrollments(ctx context.Context, challengeID string) ([]models.ChallengeEnrollment, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	sessions   sessionRepository
	challenges exportChallengeSource
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(sessions sessionRepository, challenges exportChallengeSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		sessions:   sessions,
		challenges: challenges,
		storage:    store,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate builds dataset according to job definition and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	rangePart := sanitizeFilename(job.Params.From + "_" + job.Params.To)
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), rangePart, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeAttendance:
		return s.buildAttendanceDataset(ctx, job.Params)
	case models.ReportTypeSessions:
		return s.buildSessionDataset(ctx, job.Params)
	case models.ReportTypeChallenges:
		return s.buildChallengeDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) rangeSessions(ctx context.Context, params models.ReportJobParams) ([]models.Session, timeline.Interval, error) {
	from, to, err := parseReportWindow(params)
	if err != nil {
		return nil, timeline.Interval{}, err
	}
	query := timeline.Interval{Start: timeline.StartOfDay(from), End: timeline.EndOfDay(to)}
	candidates, err := s.sessions.ListBetween(ctx, query.Start, query.End)
	if err != nil {
		return nil, query, err
	}
	sessions := make([]models.Session, 0, len(candidates))
	for _, session := range candidates {
		interval := timeline.Interval{Start: session.StartAt, End: session.EffectiveEnd()}
		if !timeline.DayOverlaps(interval, query) {
			continue
		}
		if params.CoachID != nil && *params.CoachID != "" && session.CoachID != *params.CoachID {
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, query, nil
}

func (s *ExportService) buildAttendanceDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	sessions, _, err := s.rangeSessions(ctx, params)
	if err != nil {
		return export.Dataset{}, "", err
	}
	result := timeline.Aggregate(sessions)
	timeline.SortBucketsChronological(result.Buckets)

	rows := make([]map[string]string, 0, len(result.Buckets))
	for _, bucket := range result.Buckets {
		rows = append(rows, map[string]string{
			"Day":        bucket.DayKey,
			"Time":       bucket.TimeLabel,
			"Sessions":   strconv.Itoa(len(bucket.Sessions)),
			"Attendance": strconv.Itoa(bucket.TotalAttendance),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Day", "Time", "Sessions", "Attendance"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Attendance %s to %s", params.From, params.To)
	return dataset, title, nil
}

func (s *ExportService) buildSessionDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	sessions, _, err := s.rangeSessions(ctx, params)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, map[string]string{
			"ID":        session.ID,
			"Title":     session.DisplayLabel(),
			"Kind":      string(session.Kind),
			"Coach":     session.CoachID,
			"Start":     session.StartAt.UTC().Format(time.RFC3339),
			"End":       session.EffectiveEnd().UTC().Format(time.RFC3339),
			"Attending": strconv.Itoa(session.AttendingCount()),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"ID", "Title", "Kind", "Coach", "Start", "End", "Attending"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Sessions %s to %s", params.From, params.To)
	return dataset, title, nil
}

func (s *ExportService) buildChallengeDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	from, to, err := parseReportWindow(params)
	if err != nil {
		return export.Dataset{}, "", err
	}
	challenges, _, err := s.challenges.List(ctx, models.ChallengeFilter{
		DateFrom: &from,
		DateTo:   &to,
		PageSize: 500,
	})
	if err != nil {
		return export.Dataset{}, "", err
	}
	query := timeline.Interval{Start: timeline.StartOfDay(from), End: timeline.EndOfDay(to)}

	rows := make([]map[string]string, 0, len(challenges))
	for _, challenge := range challenges {
		window := timeline.Interval{Start: challenge.StartDate, End: challenge.EndDate}
		if !timeline.DayOverlaps(window, query) {
			continue
		}
		enrollments, err := s.challenges.ListEnrollments(ctx, challenge.ID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		rows = append(rows, map[string]string{
			"ID":       challenge.ID,
			"Name":     challenge.Name,
			"Start":    challenge.StartDate.UTC().Format(timeline.DayKeyFormat),
			"End":      challenge.EndDate.UTC().Format(timeline.DayKeyFormat),
			"Enrolled": strconv.Itoa(len(enrollments)),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"ID", "Name", "Start", "End", "Enrolled"},
		Rows:    rows,
	}
	title := fmt.Sprintf("Challenges %s to %s", params.From, params.To)
	return dataset, title, nil
}

func parseReportWindow(params models.ReportJobParams) (time.Time, time.Time, error) {
	from, err := time.Parse(timeline.DayKeyFormat, params.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid report range start %q", params.From)
	}
	to, err := time.Parse(timeline.DayKeyFormat, params.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid report range end %q", params.To)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("report range end before start")
	}
	return from, to, nil
}
