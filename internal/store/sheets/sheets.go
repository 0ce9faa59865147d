// Package sheets backs the record store with a Google Sheets spreadsheet,
// the storage the selection dashboard operates on. One worksheet per entity:
// Candidates, Questions and ScoreRecords.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"github.com/spigell/selection-pipeline/internal/funnel"
	"github.com/spigell/selection-pipeline/internal/store"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	candidatesSheet   = "Candidates"
	questionsSheet    = "Questions"
	scoreRecordsSheet = "ScoreRecords"

	rawInput = "RAW"
)

type Store struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *zap.Logger
}

// New builds a store over the given spreadsheet using service account
// credentials, the same access model the original dashboard used.
func New(ctx context.Context, spreadsheetID, credentialsFile string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Store{
		service:       service,
		spreadsheetID: spreadsheetID,
		logger:        logger,
	}, nil
}

// ReadCandidates loads every candidate row. A row that fails to decode is
// skipped with a data-quality warning rather than aborting the batch; only a
// connectivity failure is fatal.
func (s *Store) ReadCandidates(ctx context.Context) ([]*funnel.Candidate, error) {
	rows, err := s.readRows(ctx, candidatesSheet)
	if err != nil {
		return nil, err
	}

	candidates := make([]*funnel.Candidate, 0, len(rows))
	for i, row := range rows {
		cand, err := store.DecodeCandidate(row)
		if err != nil {
			s.logger.Warn("skipping malformed candidate row",
				zap.Int("row", i+2),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, cand)
	}

	return candidates, nil
}

// WriteCandidates overwrites candidate rows keyed by id. Rows for unknown ids
// are appended; column layout follows the header row.
func (s *Store) WriteCandidates(ctx context.Context, candidates []*funnel.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	header, rowByID, err := s.index(ctx, candidatesSheet, store.ColID)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		header = store.CandidateColumns
		if err := s.writeRange(ctx, fmt.Sprintf("%s!A1", candidatesSheet), [][]any{toAnyRow(header)}); err != nil {
			return fmt.Errorf("write candidates header: %w", err)
		}
	}

	var updates []*sheets.ValueRange
	var appends [][]any

	for _, cand := range candidates {
		values, err := store.EncodeCandidate(cand)
		if err != nil {
			return err
		}
		row := orderByHeader(header, values)

		if rowNum, ok := rowByID[cand.ID]; ok {
			updates = append(updates, &sheets.ValueRange{
				Range:  fmt.Sprintf("%s!A%d", candidatesSheet, rowNum),
				Values: [][]any{row},
			})
			continue
		}
		appends = append(appends, row)
	}

	if len(updates) > 0 {
		req := &sheets.BatchUpdateValuesRequest{
			ValueInputOption: rawInput,
			Data:             updates,
		}
		if _, err := s.service.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("update candidate rows: %w", err)
		}
	}

	if len(appends) > 0 {
		if err := s.appendRows(ctx, candidatesSheet, appends); err != nil {
			return fmt.Errorf("append candidate rows: %w", err)
		}
	}

	return nil
}

// ReadQuestions loads the quiz question bank.
func (s *Store) ReadQuestions(ctx context.Context) ([]*funnel.QuizQuestion, error) {
	rows, err := s.readRows(ctx, questionsSheet)
	if err != nil {
		return nil, err
	}

	questions := make([]*funnel.QuizQuestion, 0, len(rows))
	for i, row := range rows {
		question, err := store.DecodeQuestion(row)
		if err != nil {
			s.logger.Warn("skipping malformed question row",
				zap.Int("row", i+2),
				zap.Error(err),
			)
			continue
		}
		questions = append(questions, question)
	}

	return questions, nil
}

// AppendScoreRecords appends audit entries to the ScoreRecords worksheet.
func (s *Store) AppendScoreRecords(ctx context.Context, records []*funnel.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	header, _, err := s.index(ctx, scoreRecordsSheet, store.RColID)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		header = store.ScoreRecordColumns
		if err := s.writeRange(ctx, fmt.Sprintf("%s!A1", scoreRecordsSheet), [][]any{toAnyRow(header)}); err != nil {
			return fmt.Errorf("write score records header: %w", err)
		}
	}

	rows := make([][]any, 0, len(records))
	for _, record := range records {
		rows = append(rows, orderByHeader(header, store.EncodeScoreRecord(record)))
	}

	if err := s.appendRows(ctx, scoreRecordsSheet, rows); err != nil {
		return fmt.Errorf("append score records: %w", err)
	}
	return nil
}

// ReadScoreRecords loads all audit entries.
func (s *Store) ReadScoreRecords(ctx context.Context) ([]*funnel.ScoreRecord, error) {
	rows, err := s.readRows(ctx, scoreRecordsSheet)
	if err != nil {
		return nil, err
	}

	records := make([]*funnel.ScoreRecord, 0, len(rows))
	for i, row := range rows {
		record, err := store.DecodeScoreRecord(row)
		if err != nil {
			s.logger.Warn("skipping malformed score record row",
				zap.Int("row", i+2),
				zap.Error(err),
			)
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// readRows returns the worksheet data rows as column-name keyed maps.
func (s *Store) readRows(ctx context.Context, sheet string) ([]map[string]string, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}

	if len(resp.Values) < 2 {
		return nil, nil
	}

	header := headerNames(resp.Values[0])

	rows := make([]map[string]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		if rowEmpty(raw) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(raw) {
				row[name] = fmt.Sprintf("%v", raw[i])
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// index reads the worksheet header and maps the key column values to their
// 1-based row numbers.
func (s *Store) index(ctx context.Context, sheet, keyColumn string) ([]string, map[string]int, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, sheet).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", sheet, err)
	}

	if len(resp.Values) == 0 {
		return nil, map[string]int{}, nil
	}

	header := headerNames(resp.Values[0])
	keyIdx := -1
	for i, name := range header {
		if name == keyColumn {
			keyIdx = i
			break
		}
	}

	rowByKey := make(map[string]int, len(resp.Values))
	if keyIdx >= 0 {
		for i, raw := range resp.Values[1:] {
			if keyIdx >= len(raw) {
				continue
			}
			key := strings.TrimSpace(fmt.Sprintf("%v", raw[keyIdx]))
			if key != "" {
				rowByKey[key] = i + 2
			}
		}
	}

	return header, rowByKey, nil
}

func (s *Store) writeRange(ctx context.Context, a1Range string, values [][]any) error {
	vr := &sheets.ValueRange{Values: values}
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, a1Range, vr).
		ValueInputOption(rawInput).Context(ctx).Do()
	return err
}

func (s *Store) appendRows(ctx context.Context, sheet string, rows [][]any) error {
	vr := &sheets.ValueRange{Values: rows}
	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, fmt.Sprintf("%s!A1", sheet), vr).
		ValueInputOption(rawInput).InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func headerNames(raw []any) []string {
	header := make([]string, len(raw))
	for i, v := range raw {
		header[i] = strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", v)))
	}
	return header
}

func orderByHeader(header []string, values map[string]string) []any {
	row := make([]any, len(header))
	for i, name := range header {
		row[i] = values[name]
	}
	return row
}

func toAnyRow(names []string) []any {
	row := make([]any, len(names))
	for i, name := range names {
		row[i] = name
	}
	return row
}

func rowEmpty(raw []any) bool {
	for _, v := range raw {
		if strings.TrimSpace(fmt.Sprintf("%v", v)) != "" {
			return false
		}
	}
	return true
}
