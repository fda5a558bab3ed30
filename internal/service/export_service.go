package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/student-planner-api/internal/dto"
	appErrors "github.com/noah-isme/student-planner-api/pkg/errors"
	"github.com/noah-isme/student-planner-api/pkg/export"
)

// MaxExportDays bounds the date range of a single agenda export.
const MaxExportDays = 62

var agendaExportHeaders = []string{"Date", "Start", "End", "Subject", "Kind", "Room", "Instructor"}

type dayBuilder interface {
	BuildDay(ctx context.Context, ownerID string, date time.Time, mode string) (*dto.AgendaDay, bool, error)
	Location() *time.Location
}

// AgendaExportRequest selects the days and encoding of an export.
type AgendaExportRequest struct {
	From   string `form:"from"`
	To     string `form:"to"`
	Format string `form:"format"`
	Mode   string `form:"mode"`
}

// ExportFile is a rendered document ready to be served.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders agendas over a date range into downloadable documents.
type ExportService struct {
	agenda    dayBuilder
	renderers map[export.Format]export.Renderer
	logger    *zap.Logger
}

// NewExportService constructs the service with the CSV, PDF and XLSX renderers.
func NewExportService(agenda dayBuilder, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		agenda: agenda,
		renderers: map[export.Format]export.Renderer{
			export.FormatCSV:  export.NewCSVExporter(),
			export.FormatPDF:  export.NewPDFExporter(),
			export.FormatXLSX: export.NewXLSXExporter(),
		},
		logger: logger,
	}
}

// Agenda renders every occurrence between From and To inclusive.
func (s *ExportService) Agenda(ctx context.Context, ownerID string, req AgendaExportRequest) (*ExportFile, error) {
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	loc := s.agenda.Location()
	from, err := time.ParseInLocation(dateLayout, req.From, loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
	}
	to, err := time.ParseInLocation(dateLayout, req.To, loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	if days := int(math.Round(to.Sub(from).Hours()/24)) + 1; days > MaxExportDays {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("export range is limited to %d days", MaxExportDays))
	}

	data := export.Dataset{
		Title:   fmt.Sprintf("Agenda %s to %s", req.From, req.To),
		Headers: agendaExportHeaders,
		Rows:    make([][]string, 0),
	}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		agenda, _, err := s.agenda.BuildDay(ctx, ownerID, day, req.Mode)
		if err != nil {
			return nil, err
		}
		for _, occ := range agenda.Occurrences {
			// Overnight meetings are listed on their start day only.
			if occ.StartAt.In(loc).Format(dateLayout) != agenda.Date {
				continue
			}
			data.Rows = append(data.Rows, []string{
				agenda.Date,
				occ.StartAt.In(loc).Format("15:04"),
				occ.EndAt.In(loc).Format("15:04"),
				occ.DisplayTitle,
				string(occ.Kind),
				occ.Room,
				occ.Instructor,
			})
		}
	}

	content, err := s.renderers[format].Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("agenda exported",
		zap.String("owner_id", ownerID),
		zap.String("format", string(format)),
		zap.Int("rows", len(data.Rows)),
	)
	return &ExportFile{
		Filename:    fmt.Sprintf("agenda_%s_%s.%s", strings.ReplaceAll(req.From, "-", ""), strings.ReplaceAll(req.To, "-", ""), format),
		ContentType: format.ContentType(),
		Data:        content,
	}, nil
}
