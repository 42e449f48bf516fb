package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/smartspace/backend/internal/domain/shared"
	"github.com/smartspace/backend/internal/domain/workspace"
	"github.com/smartspace/backend/internal/infrastructure/printing"
	"github.com/smartspace/backend/internal/infrastructure/telemetry"
)

// ReportType selects the data set of an export
type ReportType string

const (
	ReportOccupancy ReportType = "occupancy"
	ReportEnergy    ReportType = "energy"
	ReportSpaces    ReportType = "spaces"
	ReportConflicts ReportType = "conflicts"
)

// IsValid reports whether t is a known report type
func (t ReportType) IsValid() bool {
	switch t {
	case ReportOccupancy, ReportEnergy, ReportSpaces, ReportConflicts:
		return true
	}
	return false
}

// Format is the output file format
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
	FormatPDF   Format = "pdf"
)

// Extension returns the file extension for f
func (f Format) Extension() string {
	switch f {
	case FormatExcel:
		return "xlsx"
	default:
		return string(f)
	}
}

// ContentType returns the MIME type for f
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// TimeRange is a lookback window ending now
type TimeRange string

const (
	RangeToday   TimeRange = "today"
	RangeWeek    TimeRange = "week"
	RangeMonth   TimeRange = "month"
	RangeQuarter TimeRange = "quarter"
	RangeYear    TimeRange = "year"
)

// Start returns the beginning of the window that ends at now
func (r TimeRange) Start(now time.Time) (time.Time, error) {
	day := 24 * time.Hour
	switch r {
	case RangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	case RangeWeek, "":
		return now.Add(-7 * day), nil
	case RangeMonth:
		return now.Add(-30 * day), nil
	case RangeQuarter:
		return now.Add(-90 * day), nil
	case RangeYear:
		return now.Add(-365 * day), nil
	}
	return time.Time{}, shared.NewDomainError("INVALID_INPUT", "Unknown time range: "+string(r))
}

// Query carries the export options of a request
type Query struct {
	Format    string `form:"format"`
	TimeRange string `form:"time_range"`
}

// Summary describes the exported rows
type Summary struct {
	TotalRecords int                `json:"total_records"`
	From         time.Time          `json:"from"`
	To           time.Time          `json:"to"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Result is the exported file
type Result struct {
	FileType    string  `json:"file_type"`
	Filename    string  `json:"filename"`
	ContentType string  `json:"content_type"`
	Data        string  `json:"data"`
	Size        int     `json:"size"`
	Summary     Summary `json:"summary"`
	DownloadURL string  `json:"download_url,omitempty"`
}

// Archive keeps a copy of exported files and returns a download link
type Archive interface {
	Archive(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Service builds report exports
type Service struct {
	spaces        workspace.SpaceRepository
	readings      workspace.ReadingRepository
	conflicts     workspace.ConflictRepository
	renderer      printing.PDFRenderer
	archive       Archive
	collector     *telemetry.AnalyticsCollector
	renderTimeout time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// Option configures optional collaborators of the Service
type Option func(*Service)

// WithRenderer enables pdf output
func WithRenderer(r printing.PDFRenderer, timeout time.Duration) Option {
	return func(s *Service) {
		s.renderer = r
		s.renderTimeout = timeout
	}
}

// WithArchive stores every export and adds a download_url to the result
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithCollector counts exports per type and format
func WithCollector(c *telemetry.AnalyticsCollector) Option {
	return func(s *Service) { s.collector = c }
}

// NewService creates a Service
func NewService(
	spaces workspace.SpaceRepository,
	readings workspace.ReadingRepository,
	conflicts workspace.ConflictRepository,
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		spaces:    spaces,
		readings:  readings,
		conflicts: conflicts,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export builds the report and encodes it in the requested format
func (s *Service) Export(ctx context.Context, companyID string, reportType ReportType, q Query) (*Result, error) {
	ctx, span := telemetry.StartSpan(ctx, "export", "report",
		telemetry.AttrCompanyID, companyID,
		telemetry.AttrReport, string(reportType),
		telemetry.AttrFormat, q.Format,
	)
	defer span.End()

	result, err := s.export(ctx, companyID, reportType, q)
	telemetry.RecordError(span, err)
	return result, err
}

func (s *Service) export(ctx context.Context, companyID string, reportType ReportType, q Query) (*Result, error) {
	if !reportType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown report type: "+string(reportType))
	}
	format := Format(strings.ToLower(q.Format))
	if format == "" {
		format = FormatCSV
	}
	switch format {
	case FormatCSV, FormatExcel:
	case FormatPDF:
		if s.renderer == nil {
			return nil, shared.NewDomainError("SERVICE_UNAVAILABLE", "PDF export is not enabled")
		}
	default:
		return nil, shared.NewDomainError("INVALID_INPUT", "Unsupported export format: "+q.Format)
	}

	now := s.now()
	from, err := TimeRange(strings.ToLower(q.TimeRange)).Start(now)
	if err != nil {
		return nil, err
	}

	t, err := s.buildTable(ctx, companyID, reportType, from, now)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch format {
	case FormatCSV:
		data, err = encodeCSV(t)
	case FormatExcel:
		data, err = encodeExcel(t)
	case FormatPDF:
		data, err = s.encodePDF(ctx, t, from, now)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("%s_report_%s.%s", reportType, now.Format("20060102_150405"), format.Extension())
	result := &Result{
		FileType:    string(format),
		Filename:    filename,
		ContentType: format.ContentType(),
		Data:        base64.StdEncoding.EncodeToString(data),
		Size:        len(data),
		Summary: Summary{
			TotalRecords: len(t.Rows),
			From:         from,
			To:           now,
			Metrics:      t.Metrics,
		},
	}

	if s.archive != nil {
		key := companyID + "/" + filename
		url, err := s.archive.Archive(ctx, key, data, result.ContentType)
		if err != nil {
			// the inline payload is still usable
			s.logger.Warn("failed to archive report", zap.String("key", key), zap.Error(err))
		} else {
			result.DownloadURL = url
		}
	}

	if s.collector != nil {
		s.collector.ReportExported(string(reportType), string(format))
	}
	s.logger.Info("report exported",
		zap.String("company_id", companyID),
		zap.String("type", string(reportType)),
		zap.String("format", string(format)),
		zap.Int("rows", len(t.Rows)),
		zap.Int("bytes", len(data)))
	return result, nil
}
